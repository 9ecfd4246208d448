package guard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/payguard/permission"
)

// ErrInvalidRoutes is returned when a route table is inconsistent.
var ErrInvalidRoutes = errors.New("invalid route table")

// Restriction limits a path prefix to a set of roles. An empty role set makes
// the prefix reachable only through the admin bypass.
type Restriction struct {
	Prefix string
	Roles  []permission.Role
}

// Allows reports whether role may enter the restricted prefix.
func (r Restriction) Allows(role permission.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Routes is the navigation layout the guard enforces.
type Routes struct {
	AuthPrefix       string
	LoginPath        string
	HomePath         string
	UnauthorizedPath string
	// NextParam names the query parameter that carries the originally
	// requested path on a login redirect. Empty disables it.
	NextParam    string
	Restrictions []Restriction
}

// DefaultRoutes returns the dashboard's intended route table.
func DefaultRoutes() Routes {
	return Routes{
		AuthPrefix:       "/auth",
		LoginPath:        "/auth/login",
		HomePath:         "/",
		UnauthorizedPath: "/unauthorized",
		NextParam:        "next",
		Restrictions: []Restriction{
			{Prefix: "/partner-banks"},
			{Prefix: "/users"},
			{Prefix: "/merchants", Roles: []permission.Role{permission.RolePartnerBank}},
			{Prefix: "/sub-merchants", Roles: []permission.Role{permission.RoleMerchant, permission.RolePartnerBank}},
			{Prefix: "/devices", Roles: []permission.Role{permission.RoleMerchant, permission.RolePartnerBank}},
			{Prefix: "/commissions", Roles: []permission.Role{permission.RolePartnerBank}},
		},
	}
}

// Clone returns a deep copy.
func (r Routes) Clone() Routes {
	out := r
	out.Restrictions = make([]Restriction, len(r.Restrictions))
	for i, res := range r.Restrictions {
		out.Restrictions[i] = Restriction{
			Prefix: res.Prefix,
			Roles:  append([]permission.Role(nil), res.Roles...),
		}
	}
	return out
}

// Validate rejects tables that would make the guard redirect in a loop or
// match nothing.
func (r Routes) Validate() error {
	for _, field := range []struct{ name, value string }{
		{"auth prefix", r.AuthPrefix},
		{"login path", r.LoginPath},
		{"home path", r.HomePath},
		{"unauthorized path", r.UnauthorizedPath},
	} {
		if !strings.HasPrefix(field.value, "/") {
			return fmt.Errorf("%w: %s %q must start with /", ErrInvalidRoutes, field.name, field.value)
		}
	}
	if CleanPath(r.AuthPrefix) == "/" {
		return fmt.Errorf("%w: auth prefix cannot be the root", ErrInvalidRoutes)
	}
	if !underPrefix(CleanPath(r.LoginPath), CleanPath(r.AuthPrefix)) {
		return fmt.Errorf("%w: login path %q is outside auth prefix %q", ErrInvalidRoutes, r.LoginPath, r.AuthPrefix)
	}
	if underPrefix(CleanPath(r.HomePath), CleanPath(r.AuthPrefix)) {
		return fmt.Errorf("%w: home path %q is inside auth prefix %q", ErrInvalidRoutes, r.HomePath, r.AuthPrefix)
	}
	if underPrefix(CleanPath(r.UnauthorizedPath), CleanPath(r.AuthPrefix)) {
		return fmt.Errorf("%w: unauthorized path %q is inside auth prefix %q", ErrInvalidRoutes, r.UnauthorizedPath, r.AuthPrefix)
	}

	seen := make(map[string]struct{}, len(r.Restrictions))
	for _, res := range r.Restrictions {
		prefix := CleanPath(res.Prefix)
		if !strings.HasPrefix(res.Prefix, "/") || prefix == "/" {
			return fmt.Errorf("%w: restriction prefix %q must be a non-root absolute path", ErrInvalidRoutes, res.Prefix)
		}
		if _, dup := seen[prefix]; dup {
			return fmt.Errorf("%w: duplicate restriction prefix %q", ErrInvalidRoutes, prefix)
		}
		seen[prefix] = struct{}{}
		if underPrefix(prefix, CleanPath(r.AuthPrefix)) {
			return fmt.Errorf("%w: restriction %q is inside auth prefix", ErrInvalidRoutes, prefix)
		}
		if underPrefix(CleanPath(r.UnauthorizedPath), prefix) {
			return fmt.Errorf("%w: unauthorized path %q is restricted by %q", ErrInvalidRoutes, r.UnauthorizedPath, prefix)
		}
		for _, role := range res.Roles {
			if !role.Valid() {
				return fmt.Errorf("%w: restriction %q lists an unknown role", ErrInvalidRoutes, prefix)
			}
		}
	}
	return nil
}

// routesFile is the YAML layout of a route table.
type routesFile struct {
	AuthPrefix       *string `yaml:"auth_prefix"`
	LoginPath        *string `yaml:"login_path"`
	HomePath         *string `yaml:"home_path"`
	UnauthorizedPath *string `yaml:"unauthorized_path"`
	NextParam        *string `yaml:"next_param"`
	Restrictions     []struct {
		Prefix string   `yaml:"prefix"`
		Roles  []string `yaml:"roles"`
	} `yaml:"restrictions"`
}

// DecodeRoutes reads a YAML route table. Omitted paths keep their defaults;
// a present restrictions list replaces the default list entirely.
func DecodeRoutes(r io.Reader) (Routes, error) {
	var file routesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Routes{}, fmt.Errorf("%w: %v", ErrInvalidRoutes, err)
	}

	routes := DefaultRoutes()
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&routes.AuthPrefix, file.AuthPrefix)
	assign(&routes.LoginPath, file.LoginPath)
	assign(&routes.HomePath, file.HomePath)
	assign(&routes.UnauthorizedPath, file.UnauthorizedPath)
	assign(&routes.NextParam, file.NextParam)

	if file.Restrictions != nil {
		routes.Restrictions = make([]Restriction, 0, len(file.Restrictions))
		for _, entry := range file.Restrictions {
			res := Restriction{Prefix: entry.Prefix}
			for _, name := range entry.Roles {
				role, err := permission.ParseRole(name)
				if err != nil {
					return Routes{}, fmt.Errorf("%w: restriction %q: %v %q", ErrInvalidRoutes, entry.Prefix, err, name)
				}
				res.Roles = append(res.Roles, role)
			}
			routes.Restrictions = append(routes.Restrictions, res)
		}
	}

	if err := routes.Validate(); err != nil {
		return Routes{}, err
	}
	return routes, nil
}

// LoadRoutesFile reads a YAML route table from disk.
func LoadRoutesFile(filename string) (Routes, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Routes{}, err
	}
	defer f.Close()
	return DecodeRoutes(f)
}

// CleanPath normalizes a requested location: query and fragment are dropped,
// dot segments resolved and a trailing slash removed.
func CleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// underPrefix matches whole path segments: /users covers /users and
// /users/7 but not /users-export.
func underPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
