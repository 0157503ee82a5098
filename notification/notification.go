// Package notification sends best-effort SMS alerts about newly stored
// reports. Delivery failures are logged and never surfaced to callers.
package notification

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ecosmart/models"

	"github.com/apex/log"
)

// Notifier delivers a report alert. Implementations must swallow their
// own failures.
type Notifier interface {
	NotifyReport(report *models.WasteReport)
}

// TwilioNotifier sends SMS alerts through the Twilio REST API.
type TwilioNotifier struct {
	accountSID string
	authToken  string
	from       string
	to         string
	client     *http.Client
}

func NewTwilioNotifier(accountSID, authToken, from, to string) *TwilioNotifier {
	return &TwilioNotifier{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		to:         to,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyReport sends a one-way SMS about the report. Errors are logged
// only; a lost alert never fails the submission.
func (n *TwilioNotifier) NotifyReport(report *models.WasteReport) {
	body := fmt.Sprintf("New waste report\nSeverity: %s\nLocation: %s\nReport ID: %s",
		report.Severity, report.Location, report.ID)

	form := url.Values{}
	form.Set("From", n.from)
	form.Set("To", n.to)
	form.Set("Body", body)

	apiURL := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", n.accountSID)
	req, err := http.NewRequest(http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Errorf("Failed to build SMS request for report %s: %v", report.ID, err)
		return
	}
	req.SetBasicAuth(n.accountSID, n.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Errorf("Failed to send SMS for report %s: %v", report.ID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Errorf("SMS for report %s rejected with status %d", report.ID, resp.StatusCode)
		return
	}
	log.Infof("Sent SMS alert for report %s", report.ID)
}
