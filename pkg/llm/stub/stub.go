// Package stub provides a deterministic text generation backend that maps
// prompt keywords to canned responses. It never touches the network.
package stub

import (
	"context"
	"strings"
	"sync"
)

// Rule returns Response when the prompt contains Match, ignoring case
type Rule struct {
	Match    string `yaml:"match"`
	Response string `yaml:"response"`
}

// Backend is a deterministic interfaces.LLM
type Backend struct {
	rules    []Rule
	fallback string
	err      error

	mu      sync.Mutex
	calls   int
	prompts []string
}

// Option configures a Backend
type Option func(*Backend)

// WithRules replaces the rule list. Rules are evaluated in order.
func WithRules(rules ...Rule) Option {
	return func(b *Backend) {
		b.rules = append([]Rule(nil), rules...)
	}
}

// WithFallback sets the response used when no rule matches
func WithFallback(response string) Option {
	return func(b *Backend) {
		b.fallback = response
	}
}

// WithError makes every call fail with err
func WithError(err error) Option {
	return func(b *Backend) {
		b.err = err
	}
}

// New creates a stub backend with no rules and an empty fallback
func New(options ...Option) *Backend {
	b := &Backend{}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Canned responses used by Default
const (
	FirewallPolicy = "Generated policy for firewall: \n" +
		"- Block all incoming traffic on port 22 (SSH) from external networks. \n" +
		"- Allow web traffic on ports 80 and 443. \n" +
		"- Log all dropped packets to the security information and event management (SIEM) system. \n" +
		"- Please note: This is a basic policy. Always review and customize for your specific needs."

	VPNPolicy = "Generated policy for VPN access: \n" +
		"- Enforce two-factor authentication for all VPN users. \n" +
		"- Require a minimum password length of 16 characters. \n" +
		"- Implement an idle timeout of 30 minutes. \n" +
		"- Ensure all user traffic is encrypted using AES-256. \n" +
		"- All VPN access should be logged and monitored for suspicious activity."

	GenericPolicy = "Generated generic security policy: \n" +
		"- Implement strong password policies. \n" +
		"- Use endpoint protection software. \n" +
		"- Regularly patch all systems. \n" +
		"- Conduct routine security audits."
)

// Default returns the stub used by the demo: firewall and VPN prompts get
// dedicated policies, anything else a generic one
func Default() *Backend {
	return New(
		WithRules(
			Rule{Match: "firewall", Response: FirewallPolicy},
			Rule{Match: "vpn", Response: VPNPolicy},
		),
		WithFallback(GenericPolicy),
	)
}

// Name returns the name of the provider
func (b *Backend) Name() string {
	return "stub"
}

// Generate returns the response of the first matching rule
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.prompts = append(b.prompts, prompt)
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.err != nil {
		return "", b.err
	}

	folded := strings.ToLower(prompt)
	for _, rule := range b.rules {
		if strings.Contains(folded, strings.ToLower(rule.Match)) {
			return rule.Response, nil
		}
	}
	return b.fallback, nil
}

// Calls returns how many times Generate was invoked
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Prompts returns the prompts received, in order
func (b *Backend) Prompts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}
