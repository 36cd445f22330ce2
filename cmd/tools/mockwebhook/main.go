package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type bankNotification struct {
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Content       string `json:"content"`
	AccountNo     string `json:"accountNo,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
	BankCode      string `json:"bankCode,omitempty"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/api/payments/webhook/bank-notification", "Webhook URL")
	txnID := flag.String("txn-id", "BANK-"+randomHex(8), "Bank transaction id")
	invoiceID := flag.Int64("invoice", 0, "Invoice id (builds the memo when -content is empty)")
	content := flag.String("content", "", "Transfer memo (default: HOTELHUB INV<invoice>)")
	amount := flag.Int64("amount", 100000, "Amount in VND")
	bankCode := flag.String("bank-code", "970422", "Sender bank code")
	dryRun := flag.Bool("dry-run", false, "Only print the payload, don't send")

	flag.Parse()

	memo := *content
	if memo == "" {
		if *invoiceID == 0 {
			fmt.Fprintln(os.Stderr, "Error: provide -content or -invoice")
			os.Exit(1)
		}
		memo = fmt.Sprintf("HOTELHUB INV%d", *invoiceID)
	}

	payload := bankNotification{
		TransactionID: *txnID,
		Amount:        *amount,
		Content:       memo,
		BankCode:      *bankCode,
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	resp, err := http.Post(*url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "fallback"
	}
	return hex.EncodeToString(b)
}
