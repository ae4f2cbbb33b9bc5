package transform

// FallbackFunc computes value embedded as fallback into var() reference. It
// receives complete matched token ("12px"), its numeric part ("12") and the
// unit as it was written ("px").
type FallbackFunc func(origin, num, unit string) (string, error)

// Options controls which declarations are rewritten and how.
type Options struct {
	// Include must match stylesheet source for anything to happen.
	Include Matcher
	// CSSVariable is the custom property name, for example "--ke-unit".
	// Empty value disables transformation.
	CSSVariable string
	// Fallback, when set, takes precedence over FallbackOrigin.
	Fallback FallbackFunc
	// FallbackOrigin uses matched token itself as fallback.
	FallbackOrigin    bool
	SelectorBlackList []Matcher
	PropBlackList     []Matcher
	// IgnoreIdentifier, when not empty, allows to opt out a declaration by
	// putting identifier into its value or into the comment right after it.
	IgnoreIdentifier string
	// Replace rewrites declaration in place, otherwise rewritten copy is
	// inserted after the original.
	Replace bool

	fallbackSet bool
}

// Option modifies Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{Replace: true}
}

// WithInclude sets pattern source path has to match.
func WithInclude(m Matcher) Option {
	return func(o *Options) { o.Include = m }
}

// WithCSSVariable sets custom property used in generated var() references.
func WithCSSVariable(name string) Option {
	return func(o *Options) { o.CSSVariable = name }
}

// WithFallback sets function computing var() fallback.
func WithFallback(fn FallbackFunc) Option {
	return func(o *Options) {
		o.Fallback = fn
		o.fallbackSet = true
	}
}

// WithFallbackOrigin makes original token the var() fallback.
func WithFallbackOrigin(on bool) Option {
	return func(o *Options) { o.FallbackOrigin = on }
}

// WithSelectorBlackList adds selector blacklist entries.
func WithSelectorBlackList(entries ...Matcher) Option {
	return func(o *Options) { o.SelectorBlackList = append(o.SelectorBlackList, entries...) }
}

// WithPropBlackList adds property blacklist entries.
func WithPropBlackList(entries ...Matcher) Option {
	return func(o *Options) { o.PropBlackList = append(o.PropBlackList, entries...) }
}

// WithIgnoreIdentifier sets per-declaration opt-out marker.
func WithIgnoreIdentifier(id string) Option {
	return func(o *Options) { o.IgnoreIdentifier = id }
}

// WithReplace selects between in place rewrite and inserting a copy.
func WithReplace(on bool) Option {
	return func(o *Options) { o.Replace = on }
}
