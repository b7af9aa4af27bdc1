package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

const (
	defaultBaseURL = "https://api.spacetraders.io/v2"
	defaultTimeout = 30 * time.Second

	// maxRetries counts retries after the first attempt
	maxRetries = 5

	pageLimit = 20
)

// retryDelays is the fixed backoff schedule, indexed by attempt number.
// A Retry-After header on a 429 response overrides the schedule.
var retryDelays = [...]time.Duration{
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	40 * time.Second,
	60 * time.Second,
}

// Instrumentation receives client telemetry. A nil Instrumentation
// disables recording; implementations must be safe for concurrent use.
type Instrumentation interface {
	RecordRequest(method, op string, status int)
	RecordRetry(reason string)
	RecordRateLimitWait(d time.Duration)
}

type priorityCtxKey struct{}

// WithPriority tags ctx so every request made with it is scheduled at p,
// overriding the per-operation default. Missions use this to escalate
// (emergency refuel at CRITICAL) or yield (probe scans at BACKGROUND).
func WithPriority(ctx context.Context, p Priority) context.Context {
	return context.WithValue(ctx, priorityCtxKey{}, p)
}

func priorityFrom(ctx context.Context, fallback Priority) Priority {
	if p, ok := ctx.Value(priorityCtxKey{}).(Priority); ok {
		return p
	}
	return fallback
}

// Client implements ports.APIClient against the SpaceTraders HTTP API.
//
// Every request first waits out the circuit breaker, then consumes one
// scheduler token; each retry attempt consumes a token of its own.
// Responses are classified per the error-handling rules:
//
//   - network errors, HTTP >= 500, app code 3000, and 429 are transient
//     and retried on the fixed schedule (429 honors Retry-After)
//   - other 4xx responses are terminal and surface as *ports.APIError
//
// Transient failures feed the breaker; terminal responses leave it
// untouched since the upstream answered. List operations fetch every
// page before returning.
type Client struct {
	httpClient *http.Client
	scheduler  *RequestScheduler
	breaker    *CircuitBreaker
	instr      Instrumentation
	baseURL    string
	token      string
	clock      shared.Clock
}

var _ ports.APIClient = (*Client)(nil)

// NewClient creates a client with production defaults
func NewClient(token string, scheduler *RequestScheduler, breaker *CircuitBreaker) *Client {
	return NewClientWithConfig(token, scheduler, breaker, defaultBaseURL, nil, nil)
}

// NewClientWithConfig creates a client with explicit plumbing. A nil clock
// selects the real clock; a nil instr disables telemetry.
func NewClientWithConfig(
	token string,
	scheduler *RequestScheduler,
	breaker *CircuitBreaker,
	baseURL string,
	clock shared.Clock,
	instr Instrumentation,
) *Client {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		scheduler:  scheduler,
		breaker:    breaker,
		instr:      instr,
		baseURL:    baseURL,
		token:      token,
		clock:      clock,
	}
}

// transientError marks a response worth retrying
type transientError struct {
	reason     string        // metric label: network, rate_limited, server_error
	retryAfter time.Duration // from the Retry-After header, 0 when absent
	err        error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// request runs one logical API call through the breaker, the scheduler,
// and the retry loop. out, when non-nil, receives the decoded JSON body.
func (c *Client) request(ctx context.Context, method, path, op string, pri Priority, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	pri = priorityFrom(ctx, pri)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.breaker.PauseIfTripped(ctx); err != nil {
			return err
		}
		if err := c.scheduler.Acquire(ctx, pri); err != nil {
			return err
		}

		err := c.send(ctx, method, path, op, payload, out)
		if err == nil {
			c.breaker.RecordSuccess()
			return nil
		}

		var transient *transientError
		if !errors.As(err, &transient) {
			// Terminal: the upstream answered, so the breaker stays put
			return err
		}

		c.breaker.RecordFailure()
		lastErr = transient.err
		if attempt >= maxRetries {
			break
		}

		delay := retryDelays[len(retryDelays)-1]
		if attempt < len(retryDelays) {
			delay = retryDelays[attempt]
		}
		if transient.retryAfter > 0 {
			delay = transient.retryAfter
		}
		if c.instr != nil {
			c.instr.RecordRetry(transient.reason)
			if transient.reason == "rate_limited" {
				c.instr.RecordRateLimitWait(delay)
			}
		}
		if err := shared.SleepCtx(ctx, c.clock, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s %s: retries exhausted: %w", method, path, lastErr)
}

// send performs a single HTTP attempt and classifies the outcome
func (c *Client) send(ctx context.Context, method, path, op string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &transientError{reason: "network", err: fmt.Errorf("network error: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transientError{reason: "network", err: fmt.Errorf("failed to read response: %w", err)}
	}

	if c.instr != nil {
		c.instr.RecordRequest(method, op, resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}

	apiErr := parseAPIError(resp.StatusCode, respBody)

	if resp.StatusCode == http.StatusTooManyRequests || apiErr.Code == ports.ErrCodeRateLimited {
		return &transientError{
			reason:     "rate_limited",
			retryAfter: retryAfterHeader(resp),
			err:        apiErr,
		}
	}
	if resp.StatusCode >= 500 || apiErr.Code == ports.ErrCodeServerGlitch {
		return &transientError{reason: "server_error", err: apiErr}
	}

	return apiErr
}

// parseAPIError normalizes an error response body. The API wraps errors as
// {"error": {"message", "code", "data"}}; the occasional proxy-level
// failure returns a bare string body, which maps to the HTTP status.
func parseAPIError(status int, body []byte) *ports.APIError {
	var envelope struct {
		Error struct {
			Message string         `json:"message"`
			Code    int            `json:"code"`
			Data    map[string]any `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != 0 {
		return &ports.APIError{
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Data:    envelope.Error.Data,
		}
	}
	return &ports.APIError{
		Code:    status,
		Message: strings.TrimSpace(string(body)),
	}
}

func retryAfterHeader(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) get(ctx context.Context, path, op string, pri Priority, out any) error {
	return c.request(ctx, http.MethodGet, path, op, pri, nil, out)
}

func (c *Client) post(ctx context.Context, path, op string, pri Priority, body, out any) error {
	return c.request(ctx, http.MethodPost, path, op, pri, body, out)
}

func (c *Client) patch(ctx context.Context, path, op string, pri Priority, body, out any) error {
	return c.request(ctx, http.MethodPatch, path, op, pri, body, out)
}

// listPages walks a paginated endpoint until every record has arrived
func listPages[T any](ctx context.Context, c *Client, path, op string, pri Priority) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		var response struct {
			Data []T         `json:"data"`
			Meta metaPayload `json:"meta"`
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		paged := fmt.Sprintf("%s%spage=%d&limit=%d", path, sep, page, pageLimit)
		if err := c.get(ctx, paged, op, pri, &response); err != nil {
			return nil, err
		}
		all = append(all, response.Data...)
		if len(response.Data) == 0 || len(all) >= response.Meta.Total {
			return all, nil
		}
	}
}

// Agent operations

func (c *Client) GetAgent(ctx context.Context) (*ports.AgentData, error) {
	var response struct {
		Data agentPayload `json:"data"`
	}
	if err := c.get(ctx, "/my/agent", "get_agent", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return response.Data.toDomain(), nil
}

// Ship operations

func (c *Client) ListShips(ctx context.Context) ([]*ports.ShipData, error) {
	payloads, err := listPages[shipPayload](ctx, c, "/my/ships", "list_ships", PriorityLow)
	if err != nil {
		return nil, fmt.Errorf("failed to list ships: %w", err)
	}
	ships := make([]*ports.ShipData, len(payloads))
	for i, p := range payloads {
		ships[i] = p.toDomain()
	}
	return ships, nil
}

func (c *Client) GetShip(ctx context.Context, shipSymbol string) (*ports.ShipData, error) {
	var response struct {
		Data shipPayload `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s", shipSymbol)
	if err := c.get(ctx, path, "get_ship", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get ship: %w", err)
	}
	return response.Data.toDomain(), nil
}

func (c *Client) OrbitShip(ctx context.Context, shipSymbol string) error {
	path := fmt.Sprintf("/my/ships/%s/orbit", shipSymbol)
	if err := c.post(ctx, path, "orbit_ship", PriorityNormal, nil, nil); err != nil {
		return fmt.Errorf("failed to orbit ship: %w", err)
	}
	return nil
}

func (c *Client) DockShip(ctx context.Context, shipSymbol string) error {
	path := fmt.Sprintf("/my/ships/%s/dock", shipSymbol)
	if err := c.post(ctx, path, "dock_ship", PriorityNormal, nil, nil); err != nil {
		return fmt.Errorf("failed to dock ship: %w", err)
	}
	return nil
}

func (c *Client) NavigateShip(ctx context.Context, shipSymbol, waypointSymbol string) (*ports.NavigationResult, error) {
	var response struct {
		Data struct {
			Fuel fuelPayload `json:"fuel"`
			Nav  navPayload  `json:"nav"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/navigate", shipSymbol)
	body := map[string]string{"waypointSymbol": waypointSymbol}
	if err := c.post(ctx, path, "navigate_ship", PriorityNormal, body, &response); err != nil {
		return nil, fmt.Errorf("failed to navigate ship: %w", err)
	}
	return &ports.NavigationResult{
		Nav:          response.Data.Nav.toDomain(),
		FuelConsumed: response.Data.Fuel.Consumed.Amount,
	}, nil
}

func (c *Client) SetFlightMode(ctx context.Context, shipSymbol, flightMode string) error {
	path := fmt.Sprintf("/my/ships/%s/nav", shipSymbol)
	body := map[string]string{"flightMode": flightMode}
	if err := c.patch(ctx, path, "set_flight_mode", PriorityNormal, body, nil); err != nil {
		return fmt.Errorf("failed to set flight mode: %w", err)
	}
	return nil
}

func (c *Client) RefuelShip(ctx context.Context, shipSymbol string, fromCargo bool) (*ports.RefuelResult, error) {
	var response struct {
		Data struct {
			Agent       agentPayload       `json:"agent"`
			Fuel        fuelPayload        `json:"fuel"`
			Transaction transactionPayload `json:"transaction"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/refuel", shipSymbol)
	body := map[string]bool{"fromCargo": fromCargo}
	if err := c.post(ctx, path, "refuel_ship", PriorityNormal, body, &response); err != nil {
		return nil, fmt.Errorf("failed to refuel ship: %w", err)
	}
	return &ports.RefuelResult{
		FuelCurrent:  response.Data.Fuel.Current,
		FuelCapacity: response.Data.Fuel.Capacity,
		Units:        response.Data.Transaction.Units,
		TotalPrice:   response.Data.Transaction.TotalPrice,
		AgentCredits: response.Data.Agent.Credits,
	}, nil
}

func (c *Client) GetCooldown(ctx context.Context, shipSymbol string) (*ports.CooldownData, error) {
	var response struct {
		Data cooldownPayload `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/cooldown", shipSymbol)
	// A ship with no active cooldown answers 204; the zero value stands
	if err := c.get(ctx, path, "get_cooldown", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get cooldown: %w", err)
	}
	cooldown := response.Data.toDomain()
	if cooldown.ShipSymbol == "" {
		cooldown.ShipSymbol = shipSymbol
	}
	return &cooldown, nil
}

// Cargo operations

func (c *Client) GetCargo(ctx context.Context, shipSymbol string) (*shared.Cargo, error) {
	var response struct {
		Data cargoPayload `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/cargo", shipSymbol)
	if err := c.get(ctx, path, "get_cargo", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get cargo: %w", err)
	}
	return response.Data.toDomain(), nil
}

func (c *Client) PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*ports.PurchaseResult, error) {
	var response struct {
		Data struct {
			Agent       agentPayload       `json:"agent"`
			Cargo       cargoPayload       `json:"cargo"`
			Transaction transactionPayload `json:"transaction"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/purchase", shipSymbol)
	body := map[string]any{"symbol": goodSymbol, "units": units}
	if err := c.post(ctx, path, "purchase_cargo", PriorityHigh, body, &response); err != nil {
		return nil, fmt.Errorf("failed to purchase cargo: %w", err)
	}
	tx := response.Data.Transaction
	return &ports.PurchaseResult{
		Good:         tx.TradeSymbol,
		Units:        tx.Units,
		PricePerUnit: tx.PricePerUnit,
		TotalPrice:   tx.TotalPrice,
		AgentCredits: response.Data.Agent.Credits,
		Cargo:        response.Data.Cargo.toDomain(),
	}, nil
}

func (c *Client) SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*ports.SellResult, error) {
	var response struct {
		Data struct {
			Agent       agentPayload       `json:"agent"`
			Cargo       cargoPayload       `json:"cargo"`
			Transaction transactionPayload `json:"transaction"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/sell", shipSymbol)
	body := map[string]any{"symbol": goodSymbol, "units": units}
	if err := c.post(ctx, path, "sell_cargo", PriorityHigh, body, &response); err != nil {
		return nil, fmt.Errorf("failed to sell cargo: %w", err)
	}
	tx := response.Data.Transaction
	return &ports.SellResult{
		Good:         tx.TradeSymbol,
		Units:        tx.Units,
		PricePerUnit: tx.PricePerUnit,
		TotalPrice:   tx.TotalPrice,
		AgentCredits: response.Data.Agent.Credits,
		Cargo:        response.Data.Cargo.toDomain(),
	}, nil
}

func (c *Client) JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*shared.Cargo, error) {
	var response struct {
		Data struct {
			Cargo cargoPayload `json:"cargo"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/jettison", shipSymbol)
	body := map[string]any{"symbol": goodSymbol, "units": units}
	if err := c.post(ctx, path, "jettison_cargo", PriorityNormal, body, &response); err != nil {
		return nil, fmt.Errorf("failed to jettison cargo: %w", err)
	}
	return response.Data.Cargo.toDomain(), nil
}

func (c *Client) TransferCargo(ctx context.Context, fromShip, toShip, goodSymbol string, units int) (*shared.Cargo, error) {
	var response struct {
		Data struct {
			Cargo cargoPayload `json:"cargo"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/transfer", fromShip)
	body := map[string]any{"tradeSymbol": goodSymbol, "units": units, "shipSymbol": toShip}
	if err := c.post(ctx, path, "transfer_cargo", PriorityNormal, body, &response); err != nil {
		return nil, fmt.Errorf("failed to transfer cargo: %w", err)
	}
	return response.Data.Cargo.toDomain(), nil
}

// Mining operations

func (c *Client) ExtractResources(ctx context.Context, shipSymbol string) (*ports.ExtractionResult, error) {
	var response struct {
		Data struct {
			Cooldown   cooldownPayload `json:"cooldown"`
			Extraction struct {
				ShipSymbol string `json:"shipSymbol"`
				Yield      struct {
					Symbol string `json:"symbol"`
					Units  int    `json:"units"`
				} `json:"yield"`
			} `json:"extraction"`
			Cargo cargoPayload `json:"cargo"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/extract", shipSymbol)
	if err := c.post(ctx, path, "extract_resources", PriorityNormal, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to extract resources: %w", err)
	}
	return &ports.ExtractionResult{
		ShipSymbol:  response.Data.Extraction.ShipSymbol,
		YieldSymbol: response.Data.Extraction.Yield.Symbol,
		YieldUnits:  response.Data.Extraction.Yield.Units,
		Cooldown:    response.Data.Cooldown.toDomain(),
		Cargo:       response.Data.Cargo.toDomain(),
	}, nil
}

func (c *Client) CreateSurvey(ctx context.Context, shipSymbol string) (*ports.SurveyResult, error) {
	var response struct {
		Data struct {
			Cooldown cooldownPayload `json:"cooldown"`
			Surveys  []struct {
				Signature string `json:"signature"`
				Symbol    string `json:"symbol"`
				Deposits  []struct {
					Symbol string `json:"symbol"`
				} `json:"deposits"`
				Expiration string `json:"expiration"`
				Size       string `json:"size"`
			} `json:"surveys"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/survey", shipSymbol)
	if err := c.post(ctx, path, "create_survey", PriorityNormal, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}
	surveys := make([]ports.SurveyData, len(response.Data.Surveys))
	for i, s := range response.Data.Surveys {
		deposits := make([]string, len(s.Deposits))
		for j, d := range s.Deposits {
			deposits[j] = d.Symbol
		}
		surveys[i] = ports.SurveyData{
			Signature:  s.Signature,
			Symbol:     s.Symbol,
			Deposits:   deposits,
			Expiration: s.Expiration,
			Size:       s.Size,
		}
	}
	return &ports.SurveyResult{
		Surveys:  surveys,
		Cooldown: response.Data.Cooldown.toDomain(),
	}, nil
}

// System operations

func (c *Client) GetSystem(ctx context.Context, systemSymbol string) (*ports.SystemData, error) {
	var response struct {
		Data struct {
			Symbol       string  `json:"symbol"`
			SectorSymbol string  `json:"sectorSymbol"`
			Type         string  `json:"type"`
			X            float64 `json:"x"`
			Y            float64 `json:"y"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/systems/%s", systemSymbol)
	if err := c.get(ctx, path, "get_system", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get system: %w", err)
	}
	return &ports.SystemData{
		Symbol:       response.Data.Symbol,
		SectorSymbol: response.Data.SectorSymbol,
		Type:         response.Data.Type,
		X:            response.Data.X,
		Y:            response.Data.Y,
	}, nil
}

func (c *Client) ListWaypoints(ctx context.Context, systemSymbol string) ([]*ports.WaypointData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints", systemSymbol)
	payloads, err := listPages[waypointPayload](ctx, c, path, "list_waypoints", PriorityLow)
	if err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}
	waypoints := make([]*ports.WaypointData, len(payloads))
	for i, p := range payloads {
		waypoints[i] = p.toDomain()
	}
	return waypoints, nil
}

func (c *Client) GetWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.WaypointData, error) {
	var response struct {
		Data waypointPayload `json:"data"`
	}
	path := fmt.Sprintf("/systems/%s/waypoints/%s", systemSymbol, waypointSymbol)
	if err := c.get(ctx, path, "get_waypoint", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get waypoint: %w", err)
	}
	return response.Data.toDomain(), nil
}

func (c *Client) GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.MarketData, error) {
	var response struct {
		Data marketPayload `json:"data"`
	}
	path := fmt.Sprintf("/systems/%s/waypoints/%s/market", systemSymbol, waypointSymbol)
	if err := c.get(ctx, path, "get_market", PriorityNormal, &response); err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return response.Data.toDomain(), nil
}

func (c *Client) GetShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.ShipyardData, error) {
	var response struct {
		Data shipyardPayload `json:"data"`
	}
	path := fmt.Sprintf("/systems/%s/waypoints/%s/shipyard", systemSymbol, waypointSymbol)
	if err := c.get(ctx, path, "get_shipyard", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get shipyard: %w", err)
	}
	return response.Data.toDomain(), nil
}

// Contract operations

func (c *Client) ListContracts(ctx context.Context) ([]*contract.Contract, error) {
	payloads, err := listPages[contractPayload](ctx, c, "/my/contracts", "list_contracts", PriorityLow)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	contracts := make([]*contract.Contract, len(payloads))
	for i, p := range payloads {
		contracts[i] = p.toDomain()
	}
	return contracts, nil
}

func (c *Client) GetContract(ctx context.Context, contractID string) (*contract.Contract, error) {
	var response struct {
		Data contractPayload `json:"data"`
	}
	path := fmt.Sprintf("/my/contracts/%s", contractID)
	if err := c.get(ctx, path, "get_contract", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return response.Data.toDomain(), nil
}

func (c *Client) NegotiateContract(ctx context.Context, shipSymbol string) (*contract.Contract, error) {
	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/ships/%s/negotiate/contract", shipSymbol)
	// Code 4214 (agent already holds a contract) surfaces unchanged so
	// the contract mission can re-check the board instead of failing
	if err := c.post(ctx, path, "negotiate_contract", PriorityNormal, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to negotiate contract: %w", err)
	}
	return response.Data.Contract.toDomain(), nil
}

func (c *Client) AcceptContract(ctx context.Context, contractID string) (*ports.AcceptResult, error) {
	var response struct {
		Data struct {
			Agent    agentPayload    `json:"agent"`
			Contract contractPayload `json:"contract"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/contracts/%s/accept", contractID)
	if err := c.post(ctx, path, "accept_contract", PriorityHigh, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to accept contract: %w", err)
	}
	return &ports.AcceptResult{
		Contract:     response.Data.Contract.toDomain(),
		AgentCredits: response.Data.Agent.Credits,
	}, nil
}

func (c *Client) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*ports.DeliverResult, error) {
	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
			Cargo    cargoPayload    `json:"cargo"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/contracts/%s/deliver", contractID)
	body := map[string]any{"shipSymbol": shipSymbol, "tradeSymbol": tradeSymbol, "units": units}
	if err := c.post(ctx, path, "deliver_contract", PriorityHigh, body, &response); err != nil {
		return nil, fmt.Errorf("failed to deliver contract: %w", err)
	}
	return &ports.DeliverResult{
		Contract: response.Data.Contract.toDomain(),
		Cargo:    response.Data.Cargo.toDomain(),
	}, nil
}

func (c *Client) FulfillContract(ctx context.Context, contractID string) (*ports.FulfillResult, error) {
	var response struct {
		Data struct {
			Agent    agentPayload    `json:"agent"`
			Contract contractPayload `json:"contract"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/my/contracts/%s/fulfill", contractID)
	if err := c.post(ctx, path, "fulfill_contract", PriorityHigh, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fulfill contract: %w", err)
	}
	return &ports.FulfillResult{
		Contract:     response.Data.Contract.toDomain(),
		AgentCredits: response.Data.Agent.Credits,
	}, nil
}

// Construction operations

func (c *Client) GetConstruction(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.ConstructionData, error) {
	var response struct {
		Data constructionPayload `json:"data"`
	}
	path := fmt.Sprintf("/systems/%s/waypoints/%s/construction", systemSymbol, waypointSymbol)
	if err := c.get(ctx, path, "get_construction", PriorityLow, &response); err != nil {
		return nil, fmt.Errorf("failed to get construction: %w", err)
	}
	return response.Data.toDomain(), nil
}

func (c *Client) SupplyConstruction(ctx context.Context, systemSymbol, waypointSymbol, shipSymbol, tradeSymbol string, units int) (*ports.SupplyResult, error) {
	var response struct {
		Data struct {
			Construction constructionPayload `json:"construction"`
			Cargo        cargoPayload        `json:"cargo"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/systems/%s/waypoints/%s/construction/supply", systemSymbol, waypointSymbol)
	body := map[string]any{"shipSymbol": shipSymbol, "tradeSymbol": tradeSymbol, "units": units}
	if err := c.post(ctx, path, "supply_construction", PriorityHigh, body, &response); err != nil {
		return nil, fmt.Errorf("failed to supply construction: %w", err)
	}
	return &ports.SupplyResult{
		Construction: response.Data.Construction.toDomain(),
		Cargo:        response.Data.Cargo.toDomain(),
	}, nil
}
