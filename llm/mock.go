package llm

import "context"

// MockProvider is an in-memory Provider for testing.
type MockProvider struct {
	response    string
	err         error
	callCount   int
	lastRequest *Request

	// ChatFunc can be overridden for custom behavior.
	ChatFunc func(ctx context.Context, req Request) (*Response, error)
}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SetResponse sets the response content.
func (p *MockProvider) SetResponse(content string) { p.response = content }

// SetError sets an error to return.
func (p *MockProvider) SetError(err error) { p.err = err }

// LastRequest returns the last request.
func (p *MockProvider) LastRequest() *Request { return p.lastRequest }

// CallCount returns the number of Chat calls made.
func (p *MockProvider) CallCount() int { return p.callCount }

// Chat implements the Provider interface.
func (p *MockProvider) Chat(ctx context.Context, req Request) (*Response, error) {
	p.callCount++
	p.lastRequest = &req

	if p.ChatFunc != nil {
		return p.ChatFunc(ctx, req)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &Response{
		Content:    p.response,
		StopReason: "end_turn",
	}, nil
}
