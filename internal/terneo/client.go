package terneo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"terneo_bridge/internal/logger"
)

// Client errors. The client never retries internally: only the synchronizer
// knows whether a retry would race a newer write.
var (
	ErrUnreachable       = errors.New("device unreachable")
	ErrMalformedResponse = errors.New("malformed device response")
	ErrWriteFailed       = errors.New("device rejected write")
)

const (
	apiEndpoint = "/api.cgi"

	cmdGetParameters = 1
	cmdGetSchedule   = 2
	cmdGetTelemetry  = 4
)

// Client talks JSON-over-HTTP to one or more devices. It is stateless per
// device: the host is passed on every call and is never cached here.
type Client struct {
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient builds a device client with a bounded request timeout.
func NewClient(timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func deviceURL(host string) string {
	return fmt.Sprintf("http://%s%s", host, apiEndpoint)
}

// post sends one JSON request and decodes the body into a raw-message map.
func (c *Client) post(ctx context.Context, host string, body any) (map[string]json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceURL(host), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnreachable, resp.StatusCode)
	}

	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

// wireTuple is the [id, type, "value"] array of the parameter protocol.
// Some firmwares emit the value as a bare number instead of a string.
type wireTuple struct {
	ID    int
	Type  int
	Value string
}

func (t *wireTuple) UnmarshalJSON(data []byte) error {
	var fields []any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) < 3 {
		return fmt.Errorf("parameter tuple has %d fields", len(fields))
	}
	id, ok := fields[0].(float64)
	if !ok {
		return fmt.Errorf("parameter id %v is not a number", fields[0])
	}
	typ, ok := fields[1].(float64)
	if !ok {
		return fmt.Errorf("parameter type %v is not a number", fields[1])
	}
	t.ID = int(id)
	t.Type = int(typ)
	switch v := fields[2].(type) {
	case string:
		t.Value = v
	case float64:
		t.Value = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Errorf("parameter value %v has unsupported kind", fields[2])
	}
	return nil
}

func (t wireTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.ID, t.Type, t.Value})
}

// GetParameters issues the "get all parameters" command and returns the raw
// parameter map. Tuples that are not [id, type, value] arrays are dropped
// and logged, never fatal.
func (c *Client) GetParameters(ctx context.Context, host string) (ParameterMap, error) {
	resp, err := c.post(ctx, host, map[string]any{"cmd": cmdGetParameters})
	if err != nil {
		return nil, err
	}
	raw, ok := resp["par"]
	if !ok {
		return nil, fmt.Errorf("%w: missing par field", ErrMalformedResponse)
	}
	var tuples []json.RawMessage
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	params := make(ParameterMap, len(tuples))
	for _, entry := range tuples {
		var t wireTuple
		if err := json.Unmarshal(entry, &t); err != nil {
			c.log.Warnw("dropping malformed parameter tuple", "host", host, "err", err)
			continue
		}
		params[t.ID] = Parameter{ID: t.ID, Type: TypeTag(t.Type), Raw: t.Value}
	}
	return params, nil
}

// GetTelemetry issues the telemetry command and returns the flat key map,
// minus the echoed serial number.
func (c *Client) GetTelemetry(ctx context.Context, host string) (Telemetry, error) {
	resp, err := c.post(ctx, host, map[string]any{"cmd": cmdGetTelemetry})
	if err != nil {
		return nil, err
	}
	tel := make(Telemetry, len(resp))
	for k, raw := range resp {
		if k == "sn" {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		tel[k] = v
	}
	return tel, nil
}

// GetSchedule issues the schedule command and returns the wire day→periods
// mapping keyed by day-key string.
func (c *Client) GetSchedule(ctx context.Context, host string) (map[string][][]int, error) {
	resp, err := c.post(ctx, host, map[string]any{"cmd": cmdGetSchedule})
	if err != nil {
		return nil, err
	}
	raw, ok := resp["tt"]
	if !ok {
		return nil, fmt.Errorf("%w: missing tt field", ErrMalformedResponse)
	}
	var tt map[string][][]int
	if err := json.Unmarshal(raw, &tt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return tt, nil
}

// SetParameters writes exactly the given subset of parameters. The device
// answers with a single success flag for the whole batch, so a partial
// acceptance is indistinguishable from a full failure; callers must re-read
// to learn what actually landed.
func (c *Client) SetParameters(ctx context.Context, host, serial string, params []Parameter) error {
	if len(params) == 0 {
		return nil
	}
	tuples := make([]wireTuple, 0, len(params))
	for _, p := range params {
		tuples = append(tuples, wireTuple{ID: p.ID, Type: int(p.Type), Value: p.Raw})
	}
	resp, err := c.post(ctx, host, map[string]any{"sn": serial, "par": tuples})
	if err != nil {
		return err
	}
	return checkSuccess(resp)
}

// SetSchedule replaces the program of a single day.
func (c *Client) SetSchedule(ctx context.Context, host, serial, dayKey string, periods [][]int) error {
	resp, err := c.post(ctx, host, map[string]any{
		"sn": serial,
		"tt": map[string][][]int{dayKey: periods},
	})
	if err != nil {
		return err
	}
	return checkSuccess(resp)
}

func checkSuccess(resp map[string]json.RawMessage) error {
	raw, ok := resp["success"]
	if !ok {
		return fmt.Errorf("%w: missing success field", ErrMalformedResponse)
	}
	var success string
	if err := json.Unmarshal(raw, &success); err != nil {
		// Some firmwares answer with a bare boolean.
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return fmt.Errorf("%w: unreadable success field", ErrMalformedResponse)
		}
		if b {
			return nil
		}
		return ErrWriteFailed
	}
	if success != "true" {
		return ErrWriteFailed
	}
	return nil
}
