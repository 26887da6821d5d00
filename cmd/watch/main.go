package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/client"
	"github.com/yourorg/schoolhealth-notify/internal/config"
	"github.com/yourorg/schoolhealth-notify/internal/feed"
)

// watch is a terminal consumer of the notification feed: it polls, renders
// the unread badge and the current page, and marks items read on selection,
// printing the navigation target a browser client would follow.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	login := flag.String("login", "", "log in as email:password and store the token")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	creds := client.NewCredentialStore(cfg.Client.CredentialsFile)

	if *login != "" {
		if err := doLogin(cfg.Client.BaseURL, *login, creds); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		fmt.Println("Logged in; token stored.")
		return
	}

	token, err := creds.AccessToken()
	if err != nil {
		log.Fatalf("No credentials: %v (run with -login email:password first)", err)
	}

	userID, err := client.UserIDFromToken(token)
	if err != nil {
		log.Fatalf("Bad token: %v", err)
	}

	c := client.NewNotificationClient(cfg.Client.BaseURL, cfg.Client.RequestTimeout, creds, logger)
	f := feed.New(c, userID, cfg.Client.PageSize, cfg.Client.PollInterval, logger)

	f.Subscribe(render)
	f.Start()
	defer f.Stop()

	fmt.Println("Watching notifications. Commands: open <id>, page <n>, list, quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		switch fields[0] {
		case "open":
			if len(fields) < 2 {
				fmt.Println("usage: open <id>")
				break
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("usage: open <id>")
				break
			}
			result := f.Open(id)
			if result.Nav != nil {
				fmt.Printf("-> navigate to %s\n", result.Nav.URL())
			} else {
				fmt.Println("-> no navigation target")
			}
		case "page":
			if len(fields) < 2 {
				fmt.Println("usage: page <n>")
				break
			}
			page, err := strconv.Atoi(fields[1])
			if err != nil || page < 1 {
				fmt.Println("usage: page <n>")
				break
			}
			if err := f.GoToPage(ctx, page); err != nil {
				fmt.Printf("page fetch failed: %v\n", err)
			}
		case "list":
			if err := f.OpenList(ctx); err != nil {
				fmt.Printf("list refresh failed: %v\n", err)
			}
			render(f.Snapshot())
		case "quit", "exit":
			cancel()
			return
		default:
			fmt.Println("commands: open <id>, page <n>, list, quit")
		}
		cancel()
	}
}

func render(snap feed.Snapshot) {
	fmt.Printf("\n=== notifications (unread: %d, page %d/%d) ===\n",
		snap.UnreadCount, snap.CurrentPage, snap.TotalPages)
	for _, n := range snap.Items {
		marker := "*"
		if n.IsRead {
			marker = " "
		}
		fmt.Printf("[%s] #%d %s — %s\n", marker, n.ID, n.Title, n.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func doLogin(baseURL, credentials string, store *client.CredentialStore) error {
	email, password, ok := strings.Cut(credentials, ":")
	if !ok {
		return fmt.Errorf("expected email:password")
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}

	resp, err := http.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return err
	}

	return store.Save(tokens.AccessToken, tokens.RefreshToken)
}
