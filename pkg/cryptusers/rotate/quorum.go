package rotate

// QuorumPolicy is the fraction of the trust set that must be reachable in the local
// keyring. A non-empty reachable set is always required.
type QuorumPolicy struct {
	Numerator   int
	Denominator int
}

// DefaultQuorum requires at least half of the trusted identities.
var DefaultQuorum = QuorumPolicy{Numerator: 1, Denominator: 2}

func (p QuorumPolicy) orDefault() QuorumPolicy {
	if p.Denominator <= 0 {
		return DefaultQuorum
	}
	return p
}

// Met reports whether reachable out of total identities satisfies the policy.
func (p QuorumPolicy) Met(reachable, total int) bool {
	p = p.orDefault()
	if reachable < 1 {
		return false
	}
	return reachable*p.Denominator >= total*p.Numerator
}

// Required returns the smallest reachable count that satisfies the policy.
func (p QuorumPolicy) Required(total int) int {
	p = p.orDefault()
	n := (total*p.Numerator + p.Denominator - 1) / p.Denominator
	return max(n, 1)
}
