package guard

import (
	"net/url"
	"sort"

	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/session"
)

// Input is what a rule sees: the session snapshot and the cleaned path.
type Input struct {
	Session session.Session
	Path    string
}

// Rule is one step of the guard's decision list. A rule either decides
// (matched == true) or defers to the next rule.
type Rule interface {
	Name() string
	Evaluate(in Input) (d Decision, matched bool)
}

type ruleFunc struct {
	name string
	fn   func(Input) (Decision, bool)
}

func (r ruleFunc) Name() string                       { return r.name }
func (r ruleFunc) Evaluate(in Input) (Decision, bool) { return r.fn(in) }

// NewRule wraps a function as a Rule.
func NewRule(name string, fn func(Input) (Decision, bool)) Rule {
	return ruleFunc{name: name, fn: fn}
}

// Rule names, in evaluation order.
const (
	RuleAuthArea        = "auth-area"
	RuleRequireSession  = "require-session"
	RuleAdminBypass     = "admin-bypass"
	RuleRoleRestriction = "role-restriction"
	RuleDefault         = "default-allow"
)

// Guard decides, before anything renders, whether a navigation may proceed.
// It holds no session state; each call is a pure function of its inputs.
type Guard struct {
	routes Routes
	rules  []Rule
}

// New builds a guard for routes. The rule order is fixed:
//
//  1. auth-area: paths under the auth prefix redirect home when signed in,
//     otherwise allow.
//  2. require-session: without a session, redirect to login.
//  3. admin-bypass: ADMIN is allowed everywhere.
//  4. role-restriction: the most specific matching restriction must list
//     the session's role, otherwise redirect to unauthorized.
//  5. default-allow.
func New(routes Routes) (*Guard, error) {
	if err := routes.Validate(); err != nil {
		return nil, err
	}
	routes = routes.Clone()

	restrictions := routes.Clone().Restrictions
	for i := range restrictions {
		restrictions[i].Prefix = CleanPath(restrictions[i].Prefix)
	}
	// longest prefix first so /merchants/reports beats /merchants
	sort.SliceStable(restrictions, func(i, j int) bool {
		return len(restrictions[i].Prefix) > len(restrictions[j].Prefix)
	})
	authPrefix := CleanPath(routes.AuthPrefix)

	rules := []Rule{
		NewRule(RuleAuthArea, func(in Input) (Decision, bool) {
			if !underPrefix(in.Path, authPrefix) {
				return Allow, false
			}
			if in.Session.Authenticated() {
				return RedirectHome, true
			}
			return Allow, true
		}),
		NewRule(RuleRequireSession, func(in Input) (Decision, bool) {
			if !in.Session.Authenticated() {
				return RedirectLogin, true
			}
			return Allow, false
		}),
		NewRule(RuleAdminBypass, func(in Input) (Decision, bool) {
			if in.Session.Role() == permission.RoleAdmin {
				return Allow, true
			}
			return Allow, false
		}),
		NewRule(RuleRoleRestriction, func(in Input) (Decision, bool) {
			for _, res := range restrictions {
				if !underPrefix(in.Path, res.Prefix) {
					continue
				}
				if res.Allows(in.Session.Role()) {
					return Allow, false
				}
				return RedirectUnauthorized, true
			}
			return Allow, false
		}),
		NewRule(RuleDefault, func(Input) (Decision, bool) {
			return Allow, true
		}),
	}

	return &Guard{routes: routes, rules: rules}, nil
}

// MustNew is New for route tables known to be valid, such as DefaultRoutes.
func MustNew(routes Routes) *Guard {
	g, err := New(routes)
	if err != nil {
		panic(err)
	}
	return g
}

// Routes returns a copy of the enforced route table.
func (g *Guard) Routes() Routes {
	return g.routes.Clone()
}

// Rules returns the ordered rule list.
func (g *Guard) Rules() []Rule {
	return append([]Rule(nil), g.rules...)
}

// Evaluate returns the decision for navigating to requestPath.
func (g *Guard) Evaluate(sess session.Session, requestPath string) Decision {
	return g.Explain(sess, requestPath).Decision
}

// Explain evaluates the rules in order and reports which one decided.
func (g *Guard) Explain(sess session.Session, requestPath string) Result {
	in := Input{Session: sess, Path: CleanPath(requestPath)}
	for _, rule := range g.rules {
		d, ok := rule.Evaluate(in)
		if !ok {
			continue
		}
		return Result{
			Decision: d,
			Rule:     rule.Name(),
			Path:     in.Path,
			Location: g.Location(d, requestPath),
			Session:  sess,
		}
	}
	// unreachable with the built-in default rule
	return Result{Decision: RedirectLogin, Rule: RuleDefault, Path: in.Path, Location: g.Location(RedirectLogin, requestPath), Session: sess}
}

// Location returns the redirect target for d, or "" for Allow. Login
// redirects carry the requested location in the configured next parameter.
func (g *Guard) Location(d Decision, requested string) string {
	switch d {
	case RedirectLogin:
		if g.routes.NextParam == "" || requested == "" {
			return g.routes.LoginPath
		}
		q := url.Values{}
		q.Set(g.routes.NextParam, requested)
		return g.routes.LoginPath + "?" + q.Encode()
	case RedirectHome:
		return g.routes.HomePath
	case RedirectUnauthorized:
		return g.routes.UnauthorizedPath
	default:
		return ""
	}
}
