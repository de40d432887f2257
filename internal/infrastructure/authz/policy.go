package authz

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"go.uber.org/zap"
)

const modelText = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (r.act == p.act || p.act == "*")
`

// DefaultRules grants every administrative operation to the admin role
var DefaultRules = [][]string{
	{string(entity.RoleAdmin), "close"},
	{string(entity.RoleAdmin), "add_ticket_option"},
	{string(entity.RoleAdmin), "export_audit"},
}

// Policy implements port.OperationPolicy with a casbin enforcer keyed by role
type Policy struct {
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewPolicy loads rules from a casbin CSV policy file, or DefaultRules when policyPath is empty
func NewPolicy(policyPath string, logger *zap.Logger) (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}

	var enf *casbin.Enforcer
	if policyPath != "" {
		enf, err = casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
	} else {
		enf, err = casbin.NewEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}

	p := &Policy{
		enforcer: enf,
		logger:   logger,
	}
	if policyPath == "" {
		for _, rule := range DefaultRules {
			if err := p.Grant(entity.Role(rule[0]), rule[1]); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("Operation policy loaded", zap.String("policy_path", policyPath))
	return p, nil
}

// Allowed reports whether role may perform operation
func (p *Policy) Allowed(role entity.Role, operation string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ok, err := p.enforcer.Enforce(string(role), operation)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	if !ok {
		p.logger.Debug("Operation denied",
			zap.String("role", string(role)),
			zap.String("operation", operation))
	}
	return ok, nil
}

// Grant adds a rule to the in-memory policy
func (p *Policy) Grant(role entity.Role, operation string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.enforcer.AddPolicy(string(role), operation); err != nil {
		return fmt.Errorf("authz: failed to add rule %s %s: %w", role, operation, err)
	}
	return nil
}

var _ port.OperationPolicy = (*Policy)(nil)
