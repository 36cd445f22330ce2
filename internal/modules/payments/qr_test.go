package payments_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
)

var testAccount = payments.BankAccount{
	BankID:      "970422",
	AccountNo:   "0000118899",
	AccountName: "HOTELHUB JSC",
}

func TestBuildQRDeepLink(t *testing.T) {
	qr, err := payments.BuildQR(testAccount, payments.QRInput{
		Amount:    100000,
		InvoiceID: 10,
	})
	if err != nil {
		t.Fatalf("BuildQR: %v", err)
	}

	u, err := url.Parse(qr.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "img.vietqr.io" {
		t.Fatalf("host = %s", u.Host)
	}
	if !strings.HasSuffix(u.Path, "/970422-0000118899-compact2.png") {
		t.Fatalf("path = %s", u.Path)
	}

	q := u.Query()
	if q.Get("amount") != "100000" {
		t.Fatalf("amount param = %q", q.Get("amount"))
	}
	if !strings.Contains(q.Get("addInfo"), "HOTELHUB INV10") {
		t.Fatalf("addInfo = %q, missing memo", q.Get("addInfo"))
	}

	if qr.Transfer.Memo != "HOTELHUB INV10" {
		t.Fatalf("memo = %q", qr.Transfer.Memo)
	}
	if qr.Transfer.BankName != "MB Bank" {
		t.Fatalf("bank name = %q", qr.Transfer.BankName)
	}
	if qr.Transfer.AmountText != "100.000 VND" {
		t.Fatalf("amount text = %q", qr.Transfer.AmountText)
	}
}

func TestBuildQRRejectsNonPositiveAmount(t *testing.T) {
	_, err := payments.BuildQR(testAccount, payments.QRInput{Amount: 0, InvoiceID: 1})
	if !errors.Is(err, payments.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestBankNameUnknownCode(t *testing.T) {
	if got := payments.BankName("000000"); got != "Unknown bank" {
		t.Fatalf("unknown bank = %q", got)
	}
	if got := payments.BankName("970436"); got != "Vietcombank" {
		t.Fatalf("970436 = %q", got)
	}
}

func TestFormatVND(t *testing.T) {
	cases := map[int64]string{
		0:        "0 VND",
		999:      "999 VND",
		1000:     "1.000 VND",
		100000:   "100.000 VND",
		1500000:  "1.500.000 VND",
		-2500000: "-2.500.000 VND",
	}
	for amount, want := range cases {
		if got := payments.FormatVND(amount); got != want {
			t.Fatalf("FormatVND(%d) = %q, want %q", amount, got, want)
		}
	}
}
