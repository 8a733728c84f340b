package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ghidraCache memoizes headless Ghidra output per (binary content hash,
// mode, function). Keyed by content hash rather than path alone (a
// SPEC_FULL.md supplemented fix: the original keys by path only and can
// serve a stale decompilation after create_file overwrites the binary).
type ghidraCache struct {
	mu    sync.Mutex
	cache map[string]map[string]string // contentHash -> functionKey -> json output
}

func newGhidraCache() *ghidraCache {
	return &ghidraCache{cache: make(map[string]map[string]string)}
}

func (c *ghidraCache) get(contentHash, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.cache[contentHash]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

func (c *ghidraCache) put(contentHash, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.cache[contentHash]
	if !ok {
		m = make(map[string]string)
		c.cache[contentHash] = m
	}
	m[key] = value
}

// mainFallbackChain is tried, in order, whenever function="main" fails to
// resolve, widening the original's single _start fallback (spec §4.2).
var mainFallbackChain = []string{"_start", "invoke_main", "entry"}

var addressForm = regexp.MustCompile(`^fcn\.([0-9a-fA-F]+)$`)

// ghidraRunner shells a headless Ghidra analysis inside the working
// container and resolves the requested function, including the
// fcn.<hexaddr> address form via an address index produced by the same
// headless pass.
type ghidraRunner struct {
	execer Execer
	cache  *ghidraCache
	mode   string // "decompile" or "disassemble"
}

func newGhidraRunner(e Execer, mode string) *ghidraRunner {
	return &ghidraRunner{execer: e, cache: newGhidraCache(), mode: mode}
}

type ghidraOutput struct {
	Functions map[string]string `json:"functions"` // name -> decompiled/disassembled text
	Addresses map[string]string `json:"addresses"`  // "0x401000" -> function name
}

func (r *ghidraRunner) run(ctx context.Context, binary, function string) (map[string]any, error) {
	hashRes, err := r.execer.Exec(ctx, fmt.Sprintf("sha256sum %q | cut -d' ' -f1", binary), 30*time.Second)
	if err != nil || hashRes.ReturnCode == nil || *hashRes.ReturnCode != 0 {
		return map[string]any{"error": fmt.Sprintf("Failed to run Ghidra on %s", binary)}, nil
	}
	contentHash := strings.TrimSpace(hashRes.Stdout)

	cacheKey := r.mode
	cached, ok := r.cache.get(contentHash, cacheKey)
	var out ghidraOutput
	if ok {
		if err := json.Unmarshal([]byte(cached), &out); err != nil {
			ok = false
		}
	}
	if !ok {
		script := fmt.Sprintf("ghidra_headless_analyze.sh --mode %s --binary %q --json-out", r.mode, binary)
		res, err := r.execer.Exec(ctx, script, 120*time.Second)
		if err != nil || res.ReturnCode == nil || *res.ReturnCode != 0 {
			return map[string]any{"error": fmt.Sprintf("Failed to run Ghidra on %s", binary)}, nil
		}
		if jsonErr := json.Unmarshal([]byte(res.Stdout), &out); jsonErr != nil {
			return map[string]any{"error": fmt.Sprintf("Failed to run Ghidra on %s", binary)}, nil
		}
		data, _ := json.Marshal(out)
		r.cache.put(contentHash, cacheKey, string(data))
	}

	name, found := r.resolve(out, function)
	if !found {
		return map[string]any{"error": fmt.Sprintf("Function %s not found", function)}, nil
	}
	return map[string]any{"function": name, "output": out.Functions[name]}, nil
}

// resolve implements the function-name fallback chain (spec §4.2): exact
// name; "main" widens to _start/invoke_main/entry; fcn.<hexaddr> resolves
// through the address index.
func (r *ghidraRunner) resolve(out ghidraOutput, function string) (string, bool) {
	if _, ok := out.Functions[function]; ok {
		return function, true
	}
	if function == "main" {
		for _, candidate := range mainFallbackChain {
			if _, ok := out.Functions[candidate]; ok {
				return candidate, true
			}
		}
	}
	if m := addressForm.FindStringSubmatch(function); m != nil {
		addr := "0x" + strings.ToLower(m[1])
		if name, ok := out.Addresses[addr]; ok {
			if _, ok := out.Functions[name]; ok {
				return name, true
			}
		}
	}
	return "", false
}

// contentHashOf is exposed for tests that want to assert cache invalidation
// on binary content change without shelling out.
func contentHashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
