package payguard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/MrEthical07/payguard/authapi"
	"github.com/MrEthical07/payguard/guard"
	"github.com/MrEthical07/payguard/jwt"
	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/rbac"
	"github.com/MrEthical07/payguard/session"
	"github.com/MrEthical07/payguard/signer"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config

	logger     logrus.FieldLogger
	logOutput  io.Writer
	persister  session.Persister
	redis      redis.UniversalClient
	auth       Authenticator
	auditSink  AuditSink
	redirector signer.Redirector
	transport  http.RoundTripper
	table      *permission.Table
	clock      func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	cfg.Routes = cfg.Routes.Clone()
	b.config = cfg
	return b
}

// WithLogger sets the logger. Without one, a logger is built from
// Config.Log writing to stderr.
func (b *Builder) WithLogger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// WithLogOutput redirects the default logger. Ignored when WithLogger is set.
func (b *Builder) WithLogOutput(w io.Writer) *Builder {
	b.logOutput = w
	return b
}

// WithPersister sets the session persister, overriding Config.Session.Backend.
func (b *Builder) WithPersister(p session.Persister) *Builder {
	b.persister = p
	return b
}

// WithRedis supplies the client for the redis backend. Without one, Build
// dials Config.Session.RedisAddr.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuthenticator sets the backend auth collaborator, overriding
// Config.Auth.
func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.auth = a
	return b
}

// WithAuditSink sets where audit events go. Config.Audit.Enabled must also
// be set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithRedirector sets what happens after a 401 ends the session.
func (b *Builder) WithRedirector(r signer.Redirector) *Builder {
	b.redirector = r
	return b
}

// WithHTTPTransport sets the transport beneath the signer for backend auth
// calls.
func (b *Builder) WithHTTPTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithPermissionTable overrides the built-in role to permission table.
func (b *Builder) WithPermissionTable(t *permission.Table) *Builder {
	b.table = t
	return b
}

// WithClock overrides the time source used for token expiry and audit
// timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and wires the engine. The persisted
// session is not loaded; call Engine.Restore for that.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	cfg.Routes = cfg.Routes.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		out := b.logOutput
		if out == nil {
			out = os.Stderr
		}
		l, err := NewLogger(cfg.Log, out)
		if err != nil {
			return nil, err
		}
		logger = l
	}
	logger = logger.WithField("component", "payguard")

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	// -------- SESSION STORE --------
	persister, err := b.buildPersister(cfg.Session)
	if err != nil {
		return nil, err
	}
	storeOpts := []session.Option{session.WithClock(clock)}
	if cfg.Session.DiscardExpired {
		storeOpts = append(storeOpts, session.WithTokenChecker(jwt.NewInspector(cfg.Session.ExpiryLeeway)))
	}
	store := session.NewStore(persister, storeOpts...)

	// -------- RBAC + GUARD --------
	table := b.table
	if table == nil {
		table = permission.DefaultTable()
	}
	g, err := guard.New(cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	e := &Engine{
		cfg:     cfg,
		log:     logger,
		clock:   clock,
		table:   table,
		store:   store,
		rbac:    rbac.NewService(store, table),
		guard:   g,
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- SIGNER --------
	signerOpts := []signer.Option{signer.WithObserver(signerObserver{e: e})}
	if b.redirector != nil {
		signerOpts = append(signerOpts, signer.WithRedirector(b.redirector))
	}
	e.signer = signer.New(store, cfg.Signer.signerConfig(), signerOpts...)

	// -------- AUTH --------
	e.auth = b.auth
	if e.auth == nil && cfg.Auth.BaseURL != "" {
		timeout := cfg.Auth.Timeout
		if timeout <= 0 {
			timeout = authapi.DefaultConfig().Timeout
		}
		// login bypasses the signer; only logout carries the bearer
		loginHTTP := &http.Client{Transport: b.transport, Timeout: timeout}
		logoutHTTP := e.signer.Client(b.transport)
		logoutHTTP.Timeout = timeout
		client, err := authapi.New(cfg.Auth.clientConfig(), loginHTTP, authapi.WithLogoutClient(logoutHTTP))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		e.auth = client
	}
	if e.auth == nil {
		logger.Warn("no authenticator configured, Login will fail")
	}

	// -------- AUDIT --------
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = NoOpSink{}
		}
		dispatcher, err := newAuditDispatcher(cfg.Audit, sink)
		if err != nil {
			return nil, err
		}
		e.audit = dispatcher
	}

	b.built = true

	logger.WithFields(logrus.Fields{
		"backend":      persisterName(persister),
		"restrictions": len(cfg.Routes.Restrictions),
		"audit":        cfg.Audit.Enabled,
		"metrics":      cfg.Metrics.Enabled,
	}).Debug("engine built")

	return e, nil
}

func (b *Builder) buildPersister(cfg SessionConfig) (session.Persister, error) {
	if b.persister != nil {
		return b.persister, nil
	}

	switch cfg.Backend {
	case BackendFile:
		return session.NewFilePersister(cfg.FilePath), nil
	case BackendRedis:
		client := b.redis
		if client == nil {
			if cfg.RedisAddr == "" {
				return nil, fmt.Errorf("%w: redis backend requires a client or redis_addr", ErrInvalidConfig)
			}
			client = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		}
		return session.NewRedisPersister(client, cfg.RedisPrefix, cfg.RedisKey, cfg.RedisTTL), nil
	default:
		return session.NewMemoryPersister(), nil
	}
}

func persisterName(p session.Persister) string {
	switch p.(type) {
	case *session.MemoryPersister:
		return BackendMemory
	case *session.FilePersister:
		return BackendFile
	case *session.RedisPersister:
		return BackendRedis
	default:
		return "custom"
	}
}
