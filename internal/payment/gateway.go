package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-booking/internal/config"
)

var ErrGatewayRejected = errors.New("gateway rejected payment session")

// SessionClient opens mobile-wallet payment sessions. The request carries the
// same signed canonical parameter string the gateway later echoes back on its
// three confirmation channels.
type SessionClient struct {
	endpoint    string
	partnerCode string
	secret      string
	returnURL   string
	notifyURL   string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewSessionClient(cfg config.Config, logger *zap.Logger) *SessionClient {
	return &SessionClient{
		endpoint:    cfg.GatewayEndpoint,
		partnerCode: cfg.GatewayPartnerCode,
		secret:      cfg.GatewaySecret,
		returnURL:   cfg.GatewayReturnURL,
		notifyURL:   cfg.GatewayNotifyURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

type sessionResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// CreateSession requests a redirect URL for the appointment's payment.
func (c *SessionClient) CreateSession(ctx context.Context, appointmentID uuid.UUID, amount int64) (string, error) {
	params := map[string]string{
		"partnerCode": c.partnerCode,
		"orderId":     appointmentID.String(),
		"requestId":   uuid.NewString(),
		"amount":      strconv.FormatInt(amount, 10),
		"returnUrl":   c.returnURL,
		"notifyUrl":   c.notifyURL,
	}
	params[SignatureParam] = SignParams(c.secret, params)

	body, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if sr.ResultCode != 0 || sr.PayURL == "" {
		c.logger.Warn("gateway session rejected",
			zap.String("appointment_id", appointmentID.String()),
			zap.Int("result_code", sr.ResultCode),
			zap.String("message", sr.Message),
		)
		return "", ErrGatewayRejected
	}

	return sr.PayURL, nil
}
