// ABOUTME: Decoding of PHP-serialized blobs from the WordPress schema
// ABOUTME: Handles the user_roles option and the capabilities usermeta entry

package wpdb

import (
	"fmt"
	"sort"

	"github.com/elliotchance/phpserialize"
)

// decodeRoleBlob decodes the PHP-serialized user_roles option value into the
// role -> capability mapping. The blob has the shape
//
//	{ role: { "name": display, "capabilities": { cap: bool, ... } }, ... }
//
// as written by WordPress. Entries that do not match that shape are skipped.
func decodeRoleBlob(blob []byte) (map[string]RoleCaps, error) {
	raw, err := phpserialize.UnmarshalAssociativeArray(blob)
	if err != nil {
		return nil, fmt.Errorf("unserializing role blob: %w", err)
	}

	roles := make(map[string]RoleCaps, len(raw))
	for key, val := range raw {
		role, ok := key.(string)
		if !ok {
			continue
		}
		entry, ok := val.(map[interface{}]interface{})
		if !ok {
			continue
		}

		rc := RoleCaps{Capabilities: map[string]bool{}}
		if name, ok := entry["name"].(string); ok {
			rc.Name = name
		}
		if caps, ok := entry["capabilities"].(map[interface{}]interface{}); ok {
			for capKey, capVal := range caps {
				capName, ok := capKey.(string)
				if !ok {
					continue
				}
				rc.Capabilities[capName] = truthy(capVal)
			}
		}
		roles[role] = rc
	}

	if len(roles) == 0 {
		return nil, fmt.Errorf("role blob contained no roles")
	}
	return roles, nil
}

// decodeCapsMeta decodes the PHP-serialized capabilities usermeta value
// ({ role: bool, ... }) into the sorted list of granted role names.
func decodeCapsMeta(meta []byte) ([]string, error) {
	raw, err := phpserialize.UnmarshalAssociativeArray(meta)
	if err != nil {
		return nil, fmt.Errorf("unserializing capabilities meta: %w", err)
	}

	roles := make([]string, 0, len(raw))
	for key, val := range raw {
		role, ok := key.(string)
		if !ok || !truthy(val) {
			continue
		}
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles, nil
}

// truthy interprets a decoded PHP scalar the way PHP boolean context does.
// WordPress writes capability flags as booleans, but old plugins sometimes
// store 1/"1".
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t == "1" || t == "true"
	default:
		return false
	}
}
