package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

var (
	baseURL       = envOr("SMOKE_BASE_URL", "http://localhost:3000")
	adminEmail    = envOr("ADMIN_USERNAME", "admin@example.com")
	adminPassword = envOr("ADMIN_PASSWORD", "adminPassword")
)

type call struct {
	method   string
	path     string
	payload  any
	token    string
	user     string
	password string
	want     int
}

func main() {
	_ = godotenv.Load()
	fmt.Println("Starting smoke test against", baseURL)

	suffix := fmt.Sprintf("%d", time.Now().Unix())

	fmt.Println("1. Logging in...")
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	mustDo(call{method: "POST", path: "/api/auth/login", want: http.StatusOK,
		payload: map[string]string{"email": adminEmail, "password": adminPassword}}, &tokens)
	fmt.Println("PASSED: Login")

	fmt.Println("2. Creating client...")
	basicUser, basicPass := "smoke-"+suffix, "smoke-password-"+suffix
	var client struct {
		ID string `json:"id"`
	}
	mustDo(call{method: "POST", path: "/api/admin/clients", token: tokens.AccessToken, want: http.StatusCreated,
		payload: map[string]string{"name": "smoke " + suffix, "basicUsername": basicUser, "basicPassword": basicPass}}, &client)
	fmt.Println("PASSED: Create client", client.ID)

	fmt.Println("3. Creating model type and model...")
	var mt struct {
		ID string `json:"id"`
	}
	mustDo(call{method: "POST", path: "/api/model-types", token: tokens.AccessToken, want: http.StatusCreated,
		payload: map[string]string{"name": "smoke_type_" + suffix, "clientId": client.ID}}, &mt)
	mustDo(call{method: "POST", path: "/api/models", token: tokens.AccessToken, want: http.StatusCreated,
		payload: map[string]string{
			"name":        "sentiment",
			"prompt":      `Return {"sentiment": "positive" | "neutral" | "negative"} for the transcript.`,
			"clientId":    client.ID,
			"modelTypeId": mt.ID,
		}}, nil)
	fmt.Println("PASSED: Create model")

	fmt.Println("4. Listing client models...")
	var page struct {
		Total int `json:"total"`
	}
	mustDo(call{method: "GET", path: "/api/models/client/models", user: basicUser, password: basicPass, want: http.StatusOK}, &page)
	if page.Total != 1 {
		fmt.Printf("FAILED: expected 1 model, got %d\n", page.Total)
		os.Exit(1)
	}
	fmt.Println("PASSED: List client models")

	if os.Getenv("SMOKE_EXTRACT") == "" {
		fmt.Println("Skipping extraction (set SMOKE_EXTRACT=1 to call the LLM)")
		return
	}
	fmt.Println("5. Extracting...")
	mustDo(call{method: "POST", path: "/api/models/client/extract?audio_source=smoke.wav", user: basicUser, password: basicPass, want: http.StatusOK,
		payload: map[string]any{"transcripcion": []map[string]string{
			{"speaker": "agent", "text": "Good morning, how can I help?"},
			{"speaker": "customer", "text": "Thanks, everything works great now."},
		}}}, nil)
	fmt.Println("PASSED: Extract")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustDo(c call, out any) {
	if err := do(c, out); err != nil {
		fmt.Printf("FAILED: %s %s: %v\n", c.method, c.path, err)
		os.Exit(1)
	}
}

func do(c call, out any) error {
	var body io.Reader
	if c.payload != nil {
		b, err := json.Marshal(c.payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequest(c.method, baseURL+c.path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != c.want {
		return fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	fmt.Printf("Response: %s\n", respBody)
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
