package enums

// MovementDirection maps to movement_direction_enum.
type MovementDirection string

const (
	DirectionIn  MovementDirection = "in"
	DirectionOut MovementDirection = "out"
)

var directions = set[MovementDirection]{DirectionIn, DirectionOut}

func (d MovementDirection) IsValid() bool { return directions.has(d) }

func ParseMovementDirection(value string) (MovementDirection, error) {
	return directions.parse("movement direction", value)
}

// VaultMovementKind records which operation appended a vault movement.
type VaultMovementKind string

const (
	VaultMovementReceive               VaultMovementKind = "receive"
	VaultMovementWithdraw              VaultMovementKind = "withdraw"
	VaultMovementATMLoading            VaultMovementKind = "atm_loading"
	VaultMovementATMLoadingAdjustment  VaultMovementKind = "atm_loading_adjustment"
	VaultMovementATMLoadingRestoration VaultMovementKind = "atm_loading_restoration"
)

var vaultMovementKinds = set[VaultMovementKind]{
	VaultMovementReceive,
	VaultMovementWithdraw,
	VaultMovementATMLoading,
	VaultMovementATMLoadingAdjustment,
	VaultMovementATMLoadingRestoration,
}

func (k VaultMovementKind) IsValid() bool { return vaultMovementKinds.has(k) }

func ParseVaultMovementKind(value string) (VaultMovementKind, error) {
	return vaultMovementKinds.parse("vault movement kind", value)
}

// ClientMovementType maps to client_movement_type_enum.
type ClientMovementType string

const (
	ClientMovementCredit ClientMovementType = "credit"
	ClientMovementDebit  ClientMovementType = "debit"
)

var clientMovementTypes = set[ClientMovementType]{ClientMovementCredit, ClientMovementDebit}

func (t ClientMovementType) IsValid() bool { return clientMovementTypes.has(t) }

func ParseClientMovementType(value string) (ClientMovementType, error) {
	return clientMovementTypes.parse("client movement type", value)
}
