package payments

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// MemoTag is the literal the transfer memo must carry so a bank
// notification can be matched back to an invoice: "HOTELHUB INV{id}".
const MemoTag = "HOTELHUB"

const defaultQRTemplate = "compact2"

// BankAccount is the process-wide receiving identity. It is loaded from the
// environment, never from request payloads: a caller-supplied bank or
// account number is always overridden so a client cannot redirect funds.
type BankAccount struct {
	BankID      string
	AccountNo   string
	AccountName string
}

func BankAccountFromEnv() BankAccount {
	return BankAccount{
		BankID:      envOr("BANK_ID", "970422"),
		AccountNo:   envOr("BANK_ACCOUNT_NO", "0000118899"),
		AccountName: envOr("BANK_ACCOUNT_NAME", "HOTELHUB JSC"),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// NAPAS bank ids the back office is known to receive from. Unknown ids
// resolve to a placeholder, never an error.
var bankNames = map[string]string{
	"970403": "Sacombank",
	"970405": "Agribank",
	"970407": "Techcombank",
	"970415": "VietinBank",
	"970416": "ACB",
	"970418": "BIDV",
	"970422": "MB Bank",
	"970423": "TPBank",
	"970432": "VPBank",
	"970436": "Vietcombank",
}

const unknownBankName = "Unknown bank"

func BankName(bankID string) string {
	if name, ok := bankNames[bankID]; ok {
		return name
	}
	return unknownBankName
}

// TransferMemo renders the memo convention for an invoice.
func TransferMemo(invoiceID int64) string {
	return fmt.Sprintf("%s INV%d", MemoTag, invoiceID)
}

type QRInput struct {
	Amount      int64
	InvoiceID   int64
	Description string
	Template    string
}

type TransferInfo struct {
	BankID      string `json:"bankId"`
	BankName    string `json:"bankName"`
	AccountNo   string `json:"accountNo"`
	AccountName string `json:"accountName"`
	Amount      int64  `json:"amount"`
	AmountText  string `json:"amountText"`
	Memo        string `json:"memo"`
	Note        string `json:"note"`
}

type QRResult struct {
	URL      string       `json:"qrCodeUrl"`
	Transfer TransferInfo `json:"transferInfo"`
}

// BuildQR produces the img.vietqr.io deep link plus human-readable transfer
// instructions. Pure: no state, no I/O.
func BuildQR(acct BankAccount, in QRInput) (QRResult, error) {
	if in.Amount <= 0 {
		return QRResult{}, ErrInvalidAmount
	}

	template := in.Template
	if template == "" {
		template = defaultQRTemplate
	}

	memo := TransferMemo(in.InvoiceID)
	addInfo := memo
	if d := strings.TrimSpace(in.Description); d != "" {
		addInfo = memo + " " + d
	}

	q := url.Values{}
	q.Set("amount", strconv.FormatInt(in.Amount, 10))
	q.Set("addInfo", addInfo)
	q.Set("accountName", acct.AccountName)

	link := fmt.Sprintf("https://img.vietqr.io/image/%s-%s-%s.png?%s",
		acct.BankID, acct.AccountNo, template, q.Encode())

	return QRResult{
		URL: link,
		Transfer: TransferInfo{
			BankID:      acct.BankID,
			BankName:    BankName(acct.BankID),
			AccountNo:   acct.AccountNo,
			AccountName: acct.AccountName,
			Amount:      in.Amount,
			AmountText:  FormatVND(in.Amount),
			Memo:        memo,
			Note:        "Transfer the exact amount with the exact memo so the payment can be matched automatically.",
		},
	}, nil
}

// FormatVND renders an amount with Vietnamese thousand separators: 100.000 VND.
func FormatVND(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String() + " VND"
	if neg {
		out = "-" + out
	}
	return out
}
