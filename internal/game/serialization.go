package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EncodeSnapshot serializes a snapshot to JSON. This is the representation
// written to durable storage and pushed over the wire; Go's map key sorting
// makes the bytes stable for an unchanged state.
func EncodeSnapshot(snapshot *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a snapshot from its JSON form.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// Checksum computes a deterministic SHA-256 over a canonical representation
// of the snapshot. Checksums guard against divergent states across restarts
// and reconnects; two snapshots of equal state hash identically regardless of
// map iteration order.
func (snapshot *Snapshot) Checksum() string {
	hash := sha256.Sum256([]byte(snapshot.canonicalRepresentation()))
	return hex.EncodeToString(hash[:])
}

// canonicalRepresentation builds a stable string form of the snapshot: maps
// walked in sorted key order, ordered zones kept in sequence, unordered
// collections sorted by id. Version and timestamps are included - they are
// part of the published state.
func (snapshot *Snapshot) canonicalRepresentation() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%d|%s|%d|%s\n",
		snapshot.GameID,
		snapshot.Name,
		snapshot.Version,
		snapshot.ActivePlayerID,
		snapshot.TurnNumber,
		snapshot.CurrentPhase,
	)
	fmt.Fprintf(&buf, "PLAYER_ORDER:%s\n", strings.Join(snapshot.PlayerOrder, ","))

	playerIDs := make([]string, 0, len(snapshot.Players))
	for id := range snapshot.Players {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)

	for _, id := range playerIDs {
		player := snapshot.Players[id]
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d\n", id, player.Name, player.Life)

		zoneNames := make([]string, 0, len(player.Zones))
		for name := range player.Zones {
			zoneNames = append(zoneNames, name)
		}
		sort.Strings(zoneNames)

		for _, name := range zoneNames {
			cards := player.Zones[name]
			fmt.Fprintf(&buf, " ZONE:%s|%d\n", name, len(cards))
			for i, card := range cards {
				fmt.Fprintf(&buf, "  CARD:%d|%s|%s|%s|%s|%t|%t|%s|%t|%s|%s|%g|%g\n",
					i,
					card.ID,
					card.CatalogID,
					card.Name,
					card.OwnerID,
					card.Tapped,
					card.FaceDown,
					card.AttachedToID,
					card.Token,
					card.Power,
					card.Toughness,
					card.X,
					card.Y,
				)
				counterNames := make([]string, 0, len(card.Counters))
				for counterName := range card.Counters {
					counterNames = append(counterNames, counterName)
				}
				sort.Strings(counterNames)
				for _, counterName := range counterNames {
					fmt.Fprintf(&buf, "   COUNTER:%s=%d\n", counterName, card.Counters[counterName])
				}
			}
		}
	}

	for _, die := range snapshot.Dice {
		value := "rolling"
		if die.Value != nil {
			value = fmt.Sprintf("%d", *die.Value)
		}
		fmt.Fprintf(&buf, "DIE:%s|%s|%s|%g|%g|%s\n",
			die.ID, die.OwnerID, die.Kind, die.X, die.Y, value)
	}

	for _, arrow := range snapshot.Arrows {
		fmt.Fprintf(&buf, "ARROW:%s|%s|%s|%s\n",
			arrow.ID, arrow.OwnerID, arrow.FromCardID, arrow.ToID)
	}

	for i, msg := range snapshot.Chat {
		fmt.Fprintf(&buf, "CHAT:%d|%s|%s|%s|%d\n",
			i, msg.PlayerID, msg.PlayerName, msg.Text, msg.Timestamp.UnixNano())
	}

	return buf.String()
}

// ValidateSerializationRoundtrip verifies that a snapshot survives an
// encode/decode cycle without data loss by comparing checksums.
func ValidateSerializationRoundtrip(snapshot *Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	if original, roundtripped := snapshot.Checksum(), decoded.Checksum(); original != roundtripped {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s", original, roundtripped)
	}
	return nil
}
