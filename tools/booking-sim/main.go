package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/vetlinkhq/vetsched/libs/auth"
)

// Fires N concurrent booking requests at the same practitioner slot and
// reports the outcome split. Exactly one 201 and N-1 409s means the
// availability check holds under contention.
func main() {
	var (
		baseURL        = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		practitionerID = flag.String("practitioner-id", getenv("PRACTITIONER_ID", "vet-1"), "target practitioner")
		petID          = flag.String("pet-id", getenv("PET_ID", "pet-1"), "pet id used in every request")
		slot           = flag.String("slot", "", "slot start time (RFC 3339); defaults to tomorrow 09:00 UTC")
		workers        = flag.Int("workers", 10, "concurrent booking attempts")
		secret         = flag.String("jwt-secret", getenv("JWT_SECRET", "dev-secret"), "HS256 secret for test tokens")
	)
	flag.Parse()

	slotTime := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour).Add(9 * time.Hour)
	if strings.TrimSpace(*slot) != "" {
		parsed, err := time.Parse(time.RFC3339, *slot)
		if err != nil {
			fatal("invalid -slot: " + err.Error())
		}
		slotTime = parsed.UTC()
	}

	url := strings.TrimRight(*baseURL, "/") + "/api/v1/appointments/request"
	fmt.Printf("firing %d concurrent requests for %s at %s\n", *workers, *practitionerID, slotTime.Format(time.RFC3339))

	var wg sync.WaitGroup
	results := make([]int, *workers)
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := clientToken(fmt.Sprintf("sim-client-%d", i), *secret)
			if err != nil {
				results[i] = -1
				return
			}
			results[i] = book(url, token, *petID, *practitionerID, slotTime)
		}(i)
	}
	wg.Wait()

	counts := map[int]int{}
	for _, code := range results {
		counts[code]++
	}
	fmt.Println("results:")
	for code, n := range counts {
		fmt.Printf("  %d: %d\n", code, n)
	}
	if counts[http.StatusCreated] == 1 && counts[http.StatusConflict] == *workers-1 {
		fmt.Println("OK: exactly one booking won the slot")
		return
	}
	fmt.Println("WARNING: unexpected outcome split")
	os.Exit(1)
}

func book(url, token, petID, practitionerID string, slot time.Time) int {
	payload, err := json.Marshal(map[string]string{
		"pet_id":          petID,
		"practitioner_id": practitionerID,
		"scheduled_at":    slot.Format(time.RFC3339),
		"reason":          "load simulation",
	})
	if err != nil {
		return -1
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return -1
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func clientToken(sub, secret string) (string, error) {
	now := time.Now()
	return auth.SignHS256(auth.Claims{
		Sub:      sub,
		ClinicID: "clinic-1",
		Role:     "client",
		Iat:      now.Unix(),
		Exp:      now.Add(time.Hour).Unix(),
	}, secret)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
