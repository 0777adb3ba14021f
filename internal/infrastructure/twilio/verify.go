// Package twilio adapts Twilio Verify to the report flow's verification gateway.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lead-capture-api/internal/domain"
	twiliogo "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

const (
	channelSMS     = "sms"
	statusApproved = "approved"

	// Twilio Verify error codes that mean "this code can no longer be approved".
	codeMaxCheckAttempts = 60202
	codeMaxSendAttempts  = 60203
)

// VerifyAPI is the subset of the Verify v2 service used by Gateway.
type VerifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// Gateway sends and checks SMS codes through a Twilio Verify service.
type Gateway struct {
	api        VerifyAPI
	serviceSID string
}

// NewGateway builds a Gateway from account credentials. Missing settings yield
// domain.ErrGatewayUnavailable.
func NewGateway(accountSID, authToken, serviceSID string) (*Gateway, error) {
	if accountSID == "" || authToken == "" || serviceSID == "" {
		return nil, fmt.Errorf("twilio verify: %w", domain.ErrGatewayUnavailable)
	}
	client := twiliogo.NewRestClientWithParams(twiliogo.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewGatewayWithAPI(client.VerifyV2, serviceSID), nil
}

// NewGatewayWithAPI builds a Gateway over an existing Verify API.
func NewGatewayWithAPI(api VerifyAPI, serviceSID string) *Gateway {
	return &Gateway{api: api, serviceSID: serviceSID}
}

// StartVerification dispatches a code by SMS to an E.164 number.
func (g *Gateway) StartVerification(_ context.Context, phone string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel(channelSMS)
	if _, err := g.api.CreateVerification(g.serviceSID, params); err != nil {
		return fmt.Errorf("twilio create verification: %w", err)
	}
	return nil
}

// CheckVerification reports whether Twilio approved code for phone. Expired,
// consumed or exhausted verifications come back as not approved.
func (g *Gateway) CheckVerification(_ context.Context, phone, code string) (bool, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)
	resp, err := g.api.CreateVerificationCheck(g.serviceSID, params)
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) && isSpent(restErr) {
			return false, nil
		}
		return false, fmt.Errorf("twilio check verification: %w", err)
	}
	return resp.Status != nil && *resp.Status == statusApproved, nil
}

func isSpent(e *twclient.TwilioRestError) bool {
	return e.Status == http.StatusNotFound || e.Code == codeMaxCheckAttempts || e.Code == codeMaxSendAttempts
}
