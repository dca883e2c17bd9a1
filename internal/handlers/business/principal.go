package business

// Capabilities carried by an authenticated principal. Verification of the
// identity itself happens upstream (auth gateway); the engine only ever
// sees the verified identity plus its capability set, passed explicitly
// into every sensitive call.
const (
	RoleOperator = "operator"
	RoleApprover = "approver"
	RoleExecutor = "executor"
)

// Principal is the acting identity for referral and dual-control calls.
type Principal struct {
	ID    string
	Roles []string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
