package domain

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a shell and its sections:
// unique slot names, strictly increasing document indices, resolvable slot
// references and consistent section metadata. Errors are ShellRenderErrors.
func Validate(shell Shell, sections Sections) error {
	var errs []error
	seen := make(map[string]bool, len(shell.Slots))

	for i, slot := range shell.Slots {
		if slot.Name == "" {
			errs = append(errs, fmt.Errorf("slot %d has no name", i))
			continue
		}
		if IsReservedName(slot.Name) {
			errs = append(errs, fmt.Errorf("slot %q uses a reserved name", slot.Name))
		}
		if seen[slot.Name] {
			errs = append(errs, fmt.Errorf("duplicate slot %q", slot.Name))
		}
		seen[slot.Name] = true

		if i > 0 && slot.Index <= shell.Slots[i-1].Index {
			errs = append(errs, fmt.Errorf("slot %q index %d does not follow %d", slot.Name, slot.Index, shell.Slots[i-1].Index))
		}

		sec, ok := sections[slot.Ref]
		if !ok {
			errs = append(errs, fmt.Errorf("slot %q references unknown section %q", slot.Name, slot.Ref))
			continue
		}
		if sec.Name != slot.Name || sec.Index != slot.Index {
			errs = append(errs, fmt.Errorf("slot %q (index %d) does not match section %q (index %d)", slot.Name, slot.Index, sec.Name, sec.Index))
		}
		if sec.Renderer == nil {
			errs = append(errs, fmt.Errorf("section %q has no renderer", sec.Name))
		}
		if sec.Timeout < 0 || sec.Retry.Retries < 0 {
			errs = append(errs, fmt.Errorf("section %q has a negative timeout or retry count", sec.Name))
		}
	}

	if len(errs) > 0 {
		return &ShellRenderError{Err: errors.Join(errs...)}
	}
	return nil
}
