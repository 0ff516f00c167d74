package features

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cucumber/godog"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/wallet/api"
	"ecowallet/internal/wallet/application"
	"ecowallet/internal/wallet/infrastructure/memory"
	"ecowallet/internal/wallet/ledger"
)

type contractState struct {
	server   *httptest.Server
	response *http.Response
}

func InitializeScenario(sc *godog.ScenarioContext) {
	state := &contractState{}

	sc.Step(`^the service is running$`, state.theServiceIsRunning)
	sc.Step(`^I request the health endpoint$`, state.iRequestTheHealthEndpoint)
	sc.Step(`^I send (GET|POST|DELETE) "([^"]*)"$`, state.iSend)
	sc.Step(`^I send (POST|PATCH) "([^"]*)" with body:$`, state.iSendWithBody)
	sc.Step(`^the response status should be (\d+)$`, state.theResponseStatusShouldBe)
	sc.Step(`^the response should carry the correlation header$`, state.theResponseShouldCarryTheCorrelationHeader)
	sc.Step(`^the error type should be "([^"]*)"$`, state.theErrorTypeShouldBe)
	sc.Step(`^the error family should be "([^"]*)"$`, state.theErrorFamilyShouldBe)

	sc.After(func(ctx context.Context, scenario *godog.Scenario, err error) (context.Context, error) {
		if state.response != nil {
			state.response.Body.Close()
			state.response = nil
		}
		if state.server != nil {
			state.server.Close()
			state.server = nil
		}
		return ctx, nil
	})
}

func (s *contractState) theServiceIsRunning() error {
	service := ledger.NewService(memory.NewDataStore(), nil)
	registry := application.NewRegistry(service, application.Options{})
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Wallets:        api.NewWalletHandler(registry),
		Ledger:         api.NewLedgerHandler(service),
		Environment:    "test",
		RequestTimeout: 5 * time.Second,
	}))
	return nil
}

func (s *contractState) iRequestTheHealthEndpoint() error {
	return s.iSend(http.MethodGet, "/health")
}

func (s *contractState) iSend(method, path string) error {
	return s.do(method, path, nil)
}

func (s *contractState) iSendWithBody(method, path string, body *godog.DocString) error {
	return s.do(method, path, []byte(body.Content))
}

func (s *contractState) do(method, path string, body []byte) error {
	if s.server == nil {
		return fmt.Errorf("server not running")
	}
	if s.response != nil {
		s.response.Body.Close()
	}
	req, err := http.NewRequest(method, s.server.URL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request %s %s: %w", method, path, err)
	}
	s.response = resp
	return nil
}

func (s *contractState) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d", expected, s.response.StatusCode)
	}
	return nil
}

func (s *contractState) theResponseShouldCarryTheCorrelationHeader() error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.Header.Get(api.CorrelationHeader) == "" {
		return fmt.Errorf("missing %s header", api.CorrelationHeader)
	}
	return nil
}

func (s *contractState) errorEnvelope() (failure.Envelope, error) {
	if s.response == nil {
		return failure.Envelope{}, fmt.Errorf("no response received")
	}
	var body api.ErrorResponse
	if err := json.NewDecoder(s.response.Body).Decode(&body); err != nil {
		return failure.Envelope{}, fmt.Errorf("decode error body: %w", err)
	}
	// Keep the envelope for a following family assertion.
	raw, _ := json.Marshal(body)
	s.response.Body = io.NopCloser(bytes.NewReader(raw))
	return body.Error, nil
}

func (s *contractState) theErrorTypeShouldBe(kind string) error {
	env, err := s.errorEnvelope()
	if err != nil {
		return err
	}
	if string(env.Type) != kind {
		return fmt.Errorf("expected error type %s, got %s", kind, env.Type)
	}
	if _, err := failure.Decode(env); err != nil {
		return fmt.Errorf("envelope does not decode: %w", err)
	}
	return nil
}

func (s *contractState) theErrorFamilyShouldBe(family string) error {
	env, err := s.errorEnvelope()
	if err != nil {
		return err
	}
	if string(env.Family) != family {
		return fmt.Errorf("expected error family %s, got %s", family, env.Family)
	}
	return nil
}
