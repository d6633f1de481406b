package adapters

import (
	"context"
	"errors"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/config"
	"voice-campaign-api/domain"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
)

const originateOp = "originate call"

var statusCallbackEvents = []string{"initiated", "ringing", "answered", "completed"}

type callCreator interface {
	CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error)
}

type twilioTelephony struct {
	logger       outbound.LoggerPort
	twilioConfig *config.TwilioConfig
	calls        callCreator
}

func NewTwilioTelephony(twilioConfig *config.TwilioConfig, logger outbound.LoggerPort) outbound.TelephonyPort {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: twilioConfig.AccountSid,
		Password: twilioConfig.AuthToken,
	})
	return newTwilioTelephony(twilioConfig, client.Api, logger)
}

func newTwilioTelephony(twilioConfig *config.TwilioConfig, calls callCreator, logger outbound.LoggerPort) *twilioTelephony {
	return &twilioTelephony{
		logger:       logger,
		twilioConfig: twilioConfig,
		calls:        calls,
	}
}

func (t *twilioTelephony) Originate(ctx context.Context, req outbound.OriginateCallRequest) (string, error) {
	if t.twilioConfig.AccountSid == "" || t.twilioConfig.AuthToken == "" {
		return "", domain.NewConfigurationError(originateOp, "TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN must be configured")
	}
	if t.twilioConfig.CallerNumber == "" {
		return "", domain.NewConfigurationError(originateOp, "TWILIO_CALLER_NUMBER is not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", domain.NewUpstreamError(originateOp, 0, "call origination cancelled", err)
	}

	playTwiml, err := twiml.Voice([]twiml.Element{&twiml.VoicePlay{Url: req.MediaURL}})
	if err != nil {
		return "", domain.NewValidationError(originateOp, "failed to render call instructions: %v", err)
	}

	params := &twilioapi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(t.twilioConfig.CallerNumber)
	params.SetTwiml(playTwiml)
	params.SetStatusCallback(req.CallbackURL)
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent(statusCallbackEvents)

	call, err := t.calls.CreateCall(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			t.logger.ErrorWithFields(err, "Provider rejected call origination", map[string]interface{}{
				"status": restErr.Status,
				"code":   restErr.Code,
				"to":     req.To,
			})
			return "", domain.NewUpstreamError(originateOp, restErr.Status, restErr.Message, err)
		}
		t.logger.ErrorWithFields(err, "Failed to originate call", map[string]interface{}{
			"to": req.To,
		})
		return "", domain.NewUpstreamError(originateOp, 0, "call origination failed", err)
	}
	if call == nil || call.Sid == nil || *call.Sid == "" {
		return "", domain.NewUpstreamError(originateOp, 0, "provider returned no call id", nil)
	}

	t.logger.InfoWithFields("Call originated", map[string]interface{}{
		"call_sid": *call.Sid,
		"to":       req.To,
	})

	return *call.Sid, nil
}
