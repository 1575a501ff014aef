// File: lixenwraith/paramconfig/policy.go
package paramconfig

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MissingPolicy governs what happens when data and object shapes disagree.
// The zero value defers to the call site's default: Raise when serializing,
// Warn when deserializing.
type MissingPolicy int

const (
	DefaultPolicy MissingPolicy = iota
	Ignore
	Warn
	Raise
)

func (p MissingPolicy) String() string {
	switch p {
	case DefaultPolicy:
		return "default"
	case Ignore:
		return "ignore"
	case Warn:
		return "warn"
	case Raise:
		return "raise"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(p))
	}
}

// ParsePolicy converts "ignore", "warn" or "raise" into a MissingPolicy.
func ParsePolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return Ignore, nil
	case "warn":
		return Warn, nil
	case "raise":
		return Raise, nil
	}
	return 0, fmt.Errorf("%w: %q (expected ignore, warn or raise)", ErrInvalidPolicy, s)
}

// Set implements pflag.Value so a policy can be bound to a flag directly.
func (p *MissingPolicy) Set(s string) error {
	v, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *MissingPolicy) Type() string { return "policy" }

func (p MissingPolicy) valid() bool {
	return p >= DefaultPolicy && p <= Raise
}

// or substitutes def for DefaultPolicy.
func (p MissingPolicy) or(def MissingPolicy) MissingPolicy {
	if p == DefaultPolicy {
		return def
	}
	return p
}

// apply resolves a structural mismatch under the policy. Only Raise returns an error.
func (p MissingPolicy) apply(logger *zap.Logger, msg string) error {
	switch p {
	case Raise:
		return fmt.Errorf("%w: %s", ErrMissingKey, msg)
	case Warn:
		logger.Warn(msg)
	}
	return nil
}

var defaultLogger = newDefaultLogger()

// newDefaultLogger writes warnings to stderr in console form.
func newDefaultLogger() *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zap.WarnLevel,
	)
	return zap.New(core).Named("paramconfig")
}

// DefaultLogger returns the logger used when neither the call nor the object provides one.
func DefaultLogger() *zap.Logger {
	return defaultLogger
}

// loggerOwner is implemented by objects that carry their own warning logger.
type loggerOwner interface {
	Logger() *zap.Logger
}

// loggerField tags a warning with the attribute it concerns.
func loggerField(obj Parameterized, name string) zap.Field {
	return zap.String("attribute", obj.Name()+"."+name)
}

// loggerFor picks the explicit logger, then the object's, then the package default.
func loggerFor(explicit *zap.Logger, obj any) *zap.Logger {
	if explicit != nil {
		return explicit
	}
	if lo, ok := obj.(loggerOwner); ok {
		if l := lo.Logger(); l != nil {
			return l
		}
	}
	return defaultLogger
}
