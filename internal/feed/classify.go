package feed

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

// Kind enumerates the recognized notification categories. The server does
// not yet send a first-class kind field, so the category is recovered from
// the title and message text here and nowhere else.
type Kind string

const (
	// KindVaccination is a vaccination-campaign announcement
	KindVaccination Kind = "vaccination"
	// KindMedication is a new medication submission from a guardian
	KindMedication Kind = "medication"
	// KindHealthEvent is a reported student health issue
	KindHealthEvent Kind = "health_event"
	// KindGeneric carries no navigation target
	KindGeneric Kind = "generic"
)

// Content markers used by the school health server when emitting
// notifications. Centralized so a server-supplied kind field can replace
// them without touching rendering code.
const (
	vaccinationKeyword       = "tiêm chủng"
	medicationSubmittedTitle = "Thông báo gửi thuốc mới"
)

var (
	// Student names are consecutive capitalized words after "cháu";
	// matching stops at the first lowercase word ("sẽ", "bị", ...).
	studentNameRe = regexp.MustCompile(`cháu (\p{Lu}\p{Ll}*(?: \p{Lu}\p{Ll}*)*)`)
	healthEventRe = regexp.MustCompile(`vấn đề về sức khỏe vào ngày (\d{1,2})/(\d{1,2})/(\d{4})`)
)

// Navigation is a route target derived from a clicked notification
type Navigation struct {
	Path  string
	Query url.Values
}

// Classification is the result of content-based routing for one notification
type Classification struct {
	Kind Kind
	// Nav is nil for KindGeneric
	Nav *Navigation
}

// Classify inspects a notification's title and message and decides the
// navigation target, if any. It is a pure function: same notification in,
// same classification out.
func Classify(n model.Notification) Classification {
	if strings.Contains(n.Title, vaccinationKeyword) {
		query := url.Values{}
		if m := studentNameRe.FindStringSubmatch(n.Message); m != nil {
			query.Set("studentName", m[1])
			query.Set("openModal", "true")
		}
		return Classification{
			Kind: KindVaccination,
			Nav:  &Navigation{Path: "/nurse/vaccinations", Query: query},
		}
	}

	if n.Title == medicationSubmittedTitle {
		query := url.Values{}
		query.Set("date", n.CreatedAt.Format("2006-01-02"))
		return Classification{
			Kind: KindMedication,
			Nav:  &Navigation{Path: "/nurse/medications", Query: query},
		}
	}

	if m := healthEventRe.FindStringSubmatch(n.Title); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		query := url.Values{}
		query.Set("date", fmt.Sprintf("%04d-%02d-%02d", year, month, day))
		return Classification{
			Kind: KindHealthEvent,
			Nav:  &Navigation{Path: "/guardian/events", Query: query},
		}
	}

	return Classification{Kind: KindGeneric}
}

// URL renders the navigation target as a relative URL
func (n *Navigation) URL() string {
	if len(n.Query) == 0 {
		return n.Path
	}
	return n.Path + "?" + n.Query.Encode()
}
