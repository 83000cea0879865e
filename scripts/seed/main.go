package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type demoPair struct {
	Category   string
	Location   string
	LostTitle  string
	LostDesc   string
	FoundTitle string
	FoundDesc  string
}

var demoPairs = []demoPair{
	{
		Category:   "wallets",
		Location:   "Central Station",
		LostTitle:  "Black leather wallet",
		LostDesc:   "Black leather wallet with a transit card and family photos inside",
		FoundTitle: "Found black wallet",
		FoundDesc:  "Leather wallet containing a transit card, picked up near platform 2",
	},
	{
		Category:   "electronics",
		Location:   "Riverside Park",
		LostTitle:  "Silver smartphone in blue case",
		LostDesc:   "Silver smartphone, blue silicone case, lock screen shows a dog photo",
		FoundTitle: "Found smartphone with blue case",
		FoundDesc:  "Silver smartphone in a blue case found on a bench near the fountain",
	},
	{
		Category:   "keys",
		Location:   "Main Library",
		LostTitle:  "Key ring with red carabiner",
		LostDesc:   "Five keys on a ring with a red carabiner and a small flashlight",
		FoundTitle: "Found bundle of keys",
		FoundDesc:  "Keys on a red carabiner ring with flashlight, left at the front desk",
	},
	{
		Category:   "bags",
		Location:   "Airport Terminal 1",
		LostTitle:  "Green hiking backpack",
		LostDesc:   "Green 40L hiking backpack with a water bottle in the side pocket",
		FoundTitle: "Found green backpack",
		FoundDesc:  "Large green hiking backpack with water bottle, found at gate B12",
	},
}

type seedResult struct {
	Pair     demoPair
	LostID   string
	FoundID  string
	Matches  int
	TopScore int
	Error    error
}

func main() {
	var (
		base    string
		prefix  string
		pairs   int
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.IntVar(&pairs, "pairs", len(demoPairs), "Number of demo lost/found pairs to create")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if pairs > len(demoPairs) {
		pairs = len(demoPairs)
	}

	client := &apiClient{
		base:   strings.TrimRight(base, "/") + prefix,
		client: &http.Client{Timeout: timeout},
	}

	suffix := time.Now().Unix()
	loserToken, err := client.registerAndLogin(fmt.Sprintf("demo.loser.%d@example.com", suffix), "Demo Loser")
	if err != nil {
		log.Fatalf("failed to register loser account: %v", err)
	}
	finderToken, err := client.registerAndLogin(fmt.Sprintf("demo.finder.%d@example.com", suffix), "Demo Finder")
	if err != nil {
		log.Fatalf("failed to register finder account: %v", err)
	}

	var (
		results []seedResult
		failed  int
	)

	for _, pair := range demoPairs[:pairs] {
		res := seedResult{Pair: pair}

		res.LostID, res.Error = client.createItem(loserToken, "LOST", pair.Category, pair.Location, pair.LostTitle, pair.LostDesc)
		if res.Error == nil {
			res.FoundID, res.Error = client.createItem(finderToken, "FOUND", pair.Category, pair.Location, pair.FoundTitle, pair.FoundDesc)
		}
		if res.Error == nil {
			// The pass enqueued by creation may not have run yet.
			res.Matches, res.TopScore, res.Error = client.runMatch(finderToken, res.FoundID)
		}
		if res.Error != nil {
			failed++
		}
		results = append(results, res)
	}

	loserUnread, _ := client.unreadCount(loserToken)
	finderUnread, _ := client.unreadCount(finderToken)

	printReport(results, loserUnread, finderUnread)

	if failed > 0 {
		os.Exit(1)
	}
}

type apiClient struct {
	base   string
	client *http.Client
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *apiClient) do(method, path, token string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s %s: status %d, unparseable body", method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		if env.Error != nil {
			return nil, fmt.Errorf("%s %s: %s (%s)", method, path, env.Error.Message, env.Error.Code)
		}
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return env.Data, nil
}

func (c *apiClient) registerAndLogin(email, fullName string) (string, error) {
	payload := map[string]string{
		"email":     email,
		"password":  "demo-password",
		"full_name": fullName,
	}
	data, err := c.do(http.MethodPost, "/auth/register", "", payload)
	if err != nil {
		return "", err
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("register %s: empty access token", email)
	}
	return resp.AccessToken, nil
}

func (c *apiClient) createItem(token, itemType, category, location, title, description string) (string, error) {
	payload := map[string]string{
		"type":        itemType,
		"category":    category,
		"location":    location,
		"title":       title,
		"description": description,
	}
	data, err := c.do(http.MethodPost, "/items", token, payload)
	if err != nil {
		return "", err
	}
	var item struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return "", err
	}
	return item.ID, nil
}

func (c *apiClient) runMatch(token, itemID string) (int, int, error) {
	data, err := c.do(http.MethodPost, "/items/"+itemID+"/match", token, nil)
	if err != nil {
		return 0, 0, err
	}
	var result struct {
		Matches []struct {
			Score int `json:"score"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, 0, err
	}
	top := 0
	for _, m := range result.Matches {
		if m.Score > top {
			top = m.Score
		}
	}
	return len(result.Matches), top, nil
}

func (c *apiClient) unreadCount(token string) (int, error) {
	data, err := c.do(http.MethodGet, "/notifications/unread-count", token, nil)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Unread int `json:"unread"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, err
	}
	return resp.Unread, nil
}

func printReport(results []seedResult, loserUnread, finderUnread int) {
	fmt.Println("Seed Report")
	fmt.Println("===========")
	for i, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.Matches == 0 {
			status = "NO MATCH"
		}
		fmt.Printf("[%s] pair %d: %s @ %s\n", status, i+1, res.Pair.Category, res.Pair.Location)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Lost: %s | Found: %s\n", res.LostID, res.FoundID)
		fmt.Printf("  Matches: %d | Top score: %d\n", res.Matches, res.TopScore)
	}
	fmt.Printf("Unread notifications: loser=%d, finder=%d\n", loserUnread, finderUnread)
}
