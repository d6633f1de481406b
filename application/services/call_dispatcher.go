package services

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"

	"github.com/google/uuid"
)

const placeCallOp = "place call"

var (
	dialableNumberRegexp = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)
	numberFormatting     = strings.NewReplacer(" ", "", "\u00a0", "", "-", "", ".", "", "(", "", ")", "")
)

// NormalizePhoneNumber strips common formatting characters and checks the
// remainder against a dialable number shape.
func NormalizePhoneNumber(raw string) (string, error) {
	number := numberFormatting.Replace(strings.TrimSpace(raw))
	if strings.HasPrefix(number, "00") {
		number = "+" + number[2:]
	}
	if !dialableNumberRegexp.MatchString(number) {
		return "", domain.NewValidationError(placeCallOp, "%q is not a dialable phone number", raw)
	}
	return number, nil
}

type callDispatcher struct {
	logger      outbound.LoggerPort
	telephony   outbound.TelephonyPort
	tracker     inbound.CallStatusTrackerPort
	callbackURL string
	now         func() time.Time
}

func NewCallDispatcher(logger outbound.LoggerPort, telephony outbound.TelephonyPort, tracker inbound.CallStatusTrackerPort, callbackURL string) inbound.CallDispatcherPort {
	return &callDispatcher{
		logger:      logger,
		telephony:   telephony,
		tracker:     tracker,
		callbackURL: callbackURL,
		now:         time.Now,
	}
}

func (s *callDispatcher) Place(ctx context.Context, params inbound.PlaceCallParams) (domain.CallAttempt, error) {
	toNumber, err := NormalizePhoneNumber(params.ToNumber)
	if err != nil {
		return domain.CallAttempt{}, err
	}
	audioRef := strings.TrimSpace(params.AudioRef)
	if audioRef == "" {
		return domain.CallAttempt{}, domain.NewValidationError(placeCallOp, "audio reference must not be empty")
	}

	attemptID := uuid.NewString()
	callbackURL, err := s.statusCallbackURL(attemptID)
	if err != nil {
		return domain.CallAttempt{}, err
	}

	// Registered before origination: the provider may report the first
	// status before Originate returns.
	attempt := domain.NewCallAttempt(attemptID, "", toNumber, audioRef, s.now())
	attempt.CampaignID = params.CampaignID
	attempt.CustomerIndex = params.CustomerIndex
	if err := s.tracker.Register(ctx, attempt); err != nil {
		return domain.CallAttempt{}, err
	}

	providerCallID, err := s.telephony.Originate(ctx, outbound.OriginateCallRequest{
		To:          toNumber,
		MediaURL:    audioRef,
		CallbackURL: callbackURL,
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Call origination failed", map[string]interface{}{
			"attempt_id":  attemptID,
			"campaign_id": params.CampaignID,
			"customer":    params.CustomerIndex,
		})
		failed, markErr := s.tracker.MarkFailed(ctx, attemptID, "origination rejected: "+domain.AsError(err).Detail)
		if markErr != nil {
			return domain.CallAttempt{}, err
		}
		return failed, err
	}

	placed, err := s.tracker.BindProviderCall(ctx, attemptID, providerCallID)
	if err != nil {
		return domain.CallAttempt{}, err
	}

	s.logger.InfoWithFields("Call placed", map[string]interface{}{
		"attempt_id":       attemptID,
		"provider_call_id": providerCallID,
		"campaign_id":      params.CampaignID,
	})
	return placed, nil
}

func (s *callDispatcher) statusCallbackURL(attemptID string) (string, error) {
	if s.callbackURL == "" {
		return "", domain.NewConfigurationError(placeCallOp, "status callback URL is not configured")
	}
	callback, err := url.Parse(s.callbackURL)
	if err != nil {
		return "", domain.NewConfigurationError(placeCallOp, "invalid status callback URL: %v", err)
	}
	query := callback.Query()
	query.Set("attempt_id", attemptID)
	callback.RawQuery = query.Encode()
	return callback.String(), nil
}
