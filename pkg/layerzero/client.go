package layerzero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "lzpending/internal/errors"
	"lzpending/pkg/constants"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Client interface {
	FetchMessages(ctx context.Context, owner string, page, limit int) Outcome[[]RawMessage]
	FetchDetailDocument(ctx context.Context, txHash string) Outcome[string]
	TxPageURL(txHash string) string
}

type ScanClient struct {
	apiBaseURL    string
	txPageBaseURL string
	http          *resty.Client
	logger        *logrus.Logger
}

func NewClient(cfg ClientConfig) Client {
	return NewClientWithLogger(cfg, nil)
}

func NewClientWithLogger(cfg ClientConfig, logger *logrus.Logger) Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	timeout := cfg.TimeoutSec
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeoutSec
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = constants.DefaultUserAgent
	}

	httpClient := resty.New().
		SetTimeout(time.Duration(timeout) * time.Second).
		SetHeader("User-Agent", userAgent)

	return &ScanClient{
		apiBaseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		txPageBaseURL: strings.TrimSuffix(cfg.TxPageBaseURL, "/"),
		http:          httpClient,
		logger:        logger,
	}
}

// FetchMessages lists one page of messages sent by owner. Upstream failures
// are logged and reported as an unavailable outcome, never as an error.
func (c *ScanClient) FetchMessages(ctx context.Context, owner string, page, limit int) Outcome[[]RawMessage] {
	ctx, span := otel.Tracer("lzpending").Start(ctx, "layerzero.fetch_messages")
	defer span.End()

	endpoint := c.apiBaseURL + "/messages"
	span.SetAttributes(
		attribute.String("http.url", endpoint),
		attribute.Int("lz.page", page),
		attribute.Int("lz.limit", limit),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"address": owner,
			"page":    strconv.Itoa(page),
			"limit":   strconv.Itoa(limit),
		}).
		Get(endpoint)
	if err != nil {
		c.warn(span, endpoint, 0, err, "Failed to reach message listing API")
		return Unavailable[[]RawMessage]()
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
	if !resp.IsSuccess() {
		c.warn(span, endpoint, resp.StatusCode(), fmt.Errorf("status %d", resp.StatusCode()), "Message listing API returned non-success status")
		return Unavailable[[]RawMessage]()
	}

	messages, err := decodeMessages(resp.Body())
	if err != nil {
		c.warn(span, endpoint, resp.StatusCode(), err, "Failed to decode message listing response")
		return Unavailable[[]RawMessage]()
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"count":    len(messages),
	}).Debug("Fetched message listing")

	return Found(messages)
}

// FetchDetailDocument downloads the human-readable transaction page for txHash.
func (c *ScanClient) FetchDetailDocument(ctx context.Context, txHash string) Outcome[string] {
	ctx, span := otel.Tracer("lzpending").Start(ctx, "layerzero.fetch_detail_document")
	defer span.End()

	endpoint := c.TxPageURL(txHash)
	span.SetAttributes(attribute.String("http.url", endpoint))

	resp, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		c.warn(span, endpoint, 0, err, "Failed to reach transaction page")
		return Unavailable[string]()
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
	if !resp.IsSuccess() {
		c.warn(span, endpoint, resp.StatusCode(), fmt.Errorf("status %d", resp.StatusCode()), "Transaction page returned non-success status")
		return Unavailable[string]()
	}

	return Found(resp.String())
}

// TxPageURL is the explorer page for txHash.
func (c *ScanClient) TxPageURL(txHash string) string {
	return c.txPageBaseURL + "/" + txHash
}

func (c *ScanClient) warn(span oteltrace.Span, endpoint string, status int, err error, msg string) {
	upstreamErr := apperrors.NewUpstreamError(endpoint, status, err)
	span.RecordError(upstreamErr)
	span.SetStatus(codes.Error, msg)
	apperrors.WrapLogger(c.logger).LogWarn(upstreamErr, msg)
}

func decodeMessages(body []byte) ([]RawMessage, error) {
	var payload messagesResponse
	if err := decodeNumbers(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	messages := make([]RawMessage, 0, len(payload.Messages))
	for _, row := range payload.Messages {
		var msg RawMessage
		// Rows that are not JSON objects carry nothing to probe.
		if err := decodeNumbers(row, &msg); err != nil || msg == nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
