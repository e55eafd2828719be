package game

// Phase is one step of the fixed twelve-phase turn cycle.
type Phase string

const (
	PhaseUntap            Phase = "untap"
	PhaseUpkeep           Phase = "upkeep"
	PhaseDraw             Phase = "draw"
	PhaseMain1            Phase = "main_1"
	PhaseBeginCombat      Phase = "begin_combat"
	PhaseDeclareAttackers Phase = "declare_attackers"
	PhaseDeclareBlockers  Phase = "declare_blockers"
	PhaseDamage           Phase = "damage"
	PhaseEndCombat        Phase = "end_combat"
	PhaseMain2            Phase = "main_2"
	PhaseEndStep          Phase = "end_step"
	PhaseCleanup          Phase = "cleanup"
)

// PhaseOrder is the canonical sequence phases advance through. The cycle does
// not wrap on its own: leaving cleanup requires an explicit next_turn.
var PhaseOrder = []Phase{
	PhaseUntap,
	PhaseUpkeep,
	PhaseDraw,
	PhaseMain1,
	PhaseBeginCombat,
	PhaseDeclareAttackers,
	PhaseDeclareBlockers,
	PhaseDamage,
	PhaseEndCombat,
	PhaseMain2,
	PhaseEndStep,
	PhaseCleanup,
}

// ValidPhase reports whether p is a member of the fixed phase sequence.
func ValidPhase(p Phase) bool {
	for _, candidate := range PhaseOrder {
		if candidate == p {
			return true
		}
	}
	return false
}

// NextPhase returns the phase following p. Cleanup has no successor within the
// same turn, so it returns cleanup unchanged.
func NextPhase(p Phase) Phase {
	for i, candidate := range PhaseOrder {
		if candidate == p && i+1 < len(PhaseOrder) {
			return PhaseOrder[i+1]
		}
	}
	return PhaseCleanup
}
