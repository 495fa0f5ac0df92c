/**
 * @description
 * End-to-end reference generation for wire-transfer payment links. Banks cap
 * the end-to-end id at 35 characters, so the reference packs the business
 * metadata (board item, installment, amount) into a bounded prefix and
 * appends a short random suffix.
 *
 * @notes
 * - The random suffix makes two calls with identical metadata yield distinct
 *   references. This is a uniqueness mechanism, not deduplication: a caller
 *   that needs replay safety must supply its own stable reference, which the
 *   service uses verbatim instead of generating one.
 */

package app

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	referencePrefix = "BP"
	referenceMaxLen = 35 // interbank end-to-end id limit
	suffixLen       = 6
)

// EndToEndReference derives a bounded, collision-resistant transaction
// reference from board-item metadata and the amount in cents.
func EndToEndReference(itemID string, installment int, amountCents int64) string {
	base := fmt.Sprintf("%s-%s-%d-%d", referencePrefix, itemID, installment, amountCents)

	// Reserve room for the dash-joined random suffix.
	maxBase := referenceMaxLen - suffixLen - 1
	if len(base) > maxBase {
		base = base[:maxBase]
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return base + "-" + suffix
}
