// Smoke program that streams sample claims through a running API server.
// Start the server first: satyamitra serve
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/satyamitra/internal/model"
)

func main() {
	addr := flag.String("addr", "http://localhost:8000", "API server base URL")
	role := flag.String("role", "standard", "requester role")
	flag.Parse()

	fmt.Println("=== SatyaMitra Stream Smoke Test ===")
	fmt.Println()

	samples := []model.Request{
		{Text: "The Great Wall of China is visible from the Moon with the naked eye", InputType: model.InputText},
		{Text: "https://www.reuters.com/", InputType: model.InputURL},
	}

	failed := 0
	for _, req := range samples {
		req.RequesterID = "smoke_test"
		req.UserRole = model.ParseRole(*role)

		fmt.Printf("Claim: %s (%s)\n", req.Text, req.InputType)
		fmt.Println(strings.Repeat("-", 60))

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		err := stream(ctx, *addr, req)
		cancel()
		if err != nil {
			failed++
			fmt.Printf("  ✗ %v\n", err)
		}
		fmt.Println()
	}

	fmt.Println("=== Smoke Test Complete ===")
	if failed > 0 {
		os.Exit(1)
	}
}

func stream(ctx context.Context, addr string, req model.Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(addr, "/")+"/verify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	sawResult := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var ev model.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		switch ev.Type {
		case model.EventStep:
			fmt.Printf("  [%s] %s\n", ev.ActiveNode, ev.Status)
		case model.EventResult:
			sawResult = true
			verdict := ev.Verdict
			if i := strings.Index(verdict, "\n"); i > 0 {
				verdict = verdict[:i]
			}
			fmt.Printf("  ✓ %s\n", verdict)
		case model.EventError:
			return fmt.Errorf("stream error: %s", ev.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if !sawResult {
		return fmt.Errorf("stream ended without a result")
	}
	return nil
}
