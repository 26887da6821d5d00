package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

func TestClassifyVaccinationWithStudentName(t *testing.T) {
	n := model.Notification{
		Title:   "Thông báo tiêm chủng",
		Message: "Nhà trường xin thông báo cháu Nguyễn Văn A sẽ được tiêm vắc xin sởi vào tuần tới.",
	}

	result := Classify(n)
	assert.Equal(t, KindVaccination, result.Kind)
	require.NotNil(t, result.Nav)
	assert.Equal(t, "/nurse/vaccinations", result.Nav.Path)
	assert.Equal(t, "Nguyễn Văn A", result.Nav.Query.Get("studentName"))
	assert.Equal(t, "true", result.Nav.Query.Get("openModal"))
	assert.Contains(t, result.Nav.URL(), "studentName=Nguy%E1%BB%85n+V%C4%83n+A")
}

func TestClassifyVaccinationWithoutName(t *testing.T) {
	n := model.Notification{
		Title:   "Kế hoạch tiêm chủng đợt 2",
		Message: "Nhà trường sẽ tổ chức tiêm vắc xin cho toàn khối.",
	}

	result := Classify(n)
	assert.Equal(t, KindVaccination, result.Kind)
	require.NotNil(t, result.Nav)
	assert.Equal(t, "/nurse/vaccinations", result.Nav.Path)
	assert.Empty(t, result.Nav.Query.Get("openModal"), "no modal flag without an extractable name")
	assert.Equal(t, "/nurse/vaccinations", result.Nav.URL())
}

func TestClassifyMedicationSubmitted(t *testing.T) {
	n := model.Notification{
		Title:     "Thông báo gửi thuốc mới",
		Message:   "Phụ huynh vừa gửi thuốc cho học sinh.",
		CreatedAt: time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC),
	}

	result := Classify(n)
	assert.Equal(t, KindMedication, result.Kind)
	require.NotNil(t, result.Nav)
	assert.Equal(t, "/nurse/medications", result.Nav.Path)
	assert.Equal(t, "2026-03-09", result.Nav.Query.Get("date"))
}

func TestClassifyHealthEventDate(t *testing.T) {
	n := model.Notification{
		Title:   "Học sinh gặp vấn đề về sức khỏe vào ngày 7/3/2026",
		Message: "Vui lòng theo dõi chi tiết trong mục sự kiện.",
	}

	result := Classify(n)
	assert.Equal(t, KindHealthEvent, result.Kind)
	require.NotNil(t, result.Nav)
	assert.Equal(t, "/guardian/events", result.Nav.Path)
	assert.Equal(t, "2026-03-07", result.Nav.Query.Get("date"), "D/M/YYYY must become ISO")
}

func TestClassifyGeneric(t *testing.T) {
	n := model.Notification{
		Title:   "Bản tin sức khỏe tháng 3",
		Message: "Một số lưu ý dinh dưỡng cho học sinh.",
	}

	result := Classify(n)
	assert.Equal(t, KindGeneric, result.Kind)
	assert.Nil(t, result.Nav)
}

func TestClassifyIsPure(t *testing.T) {
	n := model.Notification{
		Title:   "Thông báo tiêm chủng",
		Message: "cháu Trần Thị B sẽ được tiêm",
	}

	first := Classify(n)
	second := Classify(n)
	assert.Equal(t, first, second)
}
