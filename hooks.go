package tierkv

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// Stores and Tiered adapters call them on hot paths.
type Hooks interface {
	// A store entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors (snapshot or bump).
	// count is number of keys involved.
	GenSnapshotError(count int, err error)
	GenBumpError(storageKey string, err error)

	// A cache tier failed and the failure was contained.
	TierRescued(tier string, op Op, err error)

	// Missing handlers were called for a tier that missed keys in GetAll.
	MissingDispatched(tier string, missed, resolved int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)            {}
func (NopHooks) ProviderSetRejected(string)         {}
func (NopHooks) GenSnapshotError(int, error)        {}
func (NopHooks) GenBumpError(string, error)         {}
func (NopHooks) TierRescued(string, Op, error)      {}
func (NopHooks) MissingDispatched(string, int, int) {}
