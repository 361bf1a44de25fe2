//go:build js && wasm

// Command topowasm is the WASM bridge exposing the graph engine to a
// browser-hosted map editor, adapting cmd/wasm/main.go's js.FuncOf
// registration pattern (global namespace object, JSON-string args,
// errorResult/successResult envelopes) to osmtopo's domain.
package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"
	"time"

	"github.com/osmtopo/osmtopo/internal/actions"
	"github.com/osmtopo/osmtopo/internal/changeset"
	"github.com/osmtopo/osmtopo/internal/config"
	"github.com/osmtopo/osmtopo/internal/diff"
	"github.com/osmtopo/osmtopo/internal/entity"
	"github.com/osmtopo/osmtopo/internal/graph"
	"github.com/osmtopo/osmtopo/internal/history"
	"github.com/osmtopo/osmtopo/internal/obslog"
	"github.com/osmtopo/osmtopo/internal/spatial"
	"github.com/osmtopo/osmtopo/internal/wirejson"
)

const Version = "0.1.0"

var (
	mu      sync.Mutex
	cfg     config.Config
	log     = obslog.New("topowasm")
	base    *graph.Graph // last committed snapshot, the diff baseline
	current *graph.Graph // working copy edits accumulate on
	histDB  *history.Store
	spatDB  *spatial.Store
)

func main() {
	base = graph.New()
	current = base

	js.Global().Set("osmtopo", js.ValueOf(map[string]interface{}{
		"version":       js.FuncOf(getVersion),
		"initialize":    js.FuncOf(initialize),
		"loadEntities":  js.FuncOf(loadEntities),
		"rebase":        js.FuncOf(rebaseEntities),
		"applyAction":   js.FuncOf(applyAction),
		"commit":        js.FuncOf(commit),
		"diffSummary":   js.FuncOf(diffSummary),
		"changesetXML":  js.FuncOf(changesetXML),
		"checkpoint":    js.FuncOf(checkpointHistory),
		"restore":       js.FuncOf(restoreHistory),
		"markerAdd":     js.FuncOf(markerAdd),
		"markerReplace": js.FuncOf(markerReplace),
		"markerRemove":  js.FuncOf(markerRemove),
		"markerGet":     js.FuncOf(markerGet),
		"markerVisible": js.FuncOf(markerVisible),
		"tileAdd":       js.FuncOf(tileAdd),
		"tileHas":       js.FuncOf(tileHas),
		"markerClear":   js.FuncOf(markerClear),
	}))

	fmt.Println("[osmtopo] WASM ready v" + Version)
	select {}
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// initialize resets all session state using a JSON config blob from
// the host (internal/config.Parse's "JSON from TypeScript" source).
// Args: [configJSON string]
func initialize(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	var raw []byte
	if len(args) > 0 {
		raw = []byte(args[0].String())
	}
	parsed, err := config.Parse(raw)
	if err != nil {
		return errorResult(err.Error())
	}
	cfg = parsed
	obslog.SetLevel(levelFromString(cfg.LogLevel))

	if histDB != nil {
		histDB.Close()
	}
	if spatDB != nil {
		spatDB.Close()
	}
	histDB, err = history.NewStore(cfg.HistoryDSN)
	if err != nil {
		return errorResult("history: " + err.Error())
	}
	spatDB, err = spatial.NewStore(cfg.SpatialDSN)
	if err != nil {
		return errorResult("spatial: " + err.Error())
	}

	base = graph.New()
	current = base
	log.Infof("initialized, generator=%s", cfg.Generator)
	return successResult("initialized")
}

func levelFromString(s string) obslog.Level {
	switch s {
	case "debug":
		return obslog.LevelDebug
	case "warn":
		return obslog.LevelWarn
	case "error":
		return obslog.LevelError
	default:
		return obslog.LevelInfo
	}
}

// loadEntities bulk-replaces the working copy's entities, the "load"
// hook used both for initial hydration and history restore.
// Args: [entitiesJSON string]
func loadEntities(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	if len(args) < 1 {
		return errorResult("loadEntities requires entitiesJSON")
	}
	entities, err := wirejson.DecodeEntities([]byte(args[0].String()))
	if err != nil {
		return errorResult(err.Error())
	}
	current.Load(entities)
	log.Infof("loaded %d entities", len(entities))
	return successResult(fmt.Sprintf("loaded %d entities", len(entities)))
}

// rebaseEntities merges freshly downloaded upstream entities into the
// shared base layer across the whole branch stack (spec.md §4.2).
// Args: [entitiesJSON string, force bool]
func rebaseEntities(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	if len(args) < 1 {
		return errorResult("rebase requires entitiesJSON")
	}
	entities, err := wirejson.DecodeEntities([]byte(args[0].String()))
	if err != nil {
		return errorResult(err.Error())
	}
	force := len(args) > 1 && args[1].Bool()

	graph.Rebase(entities, []*graph.Graph{current}, force)
	log.Infof("rebased %d entities (force=%v)", len(entities), force)
	return successResult(fmt.Sprintf("rebased %d entities", len(entities)))
}

// actionRequest is the JSON envelope applyAction decodes: a named
// action plus its id arguments, following cmd/wasm/main.go's
// args[i].String()-then-json.Unmarshal idiom.
type actionRequest struct {
	Action        string      `json:"action"`
	ID            string      `json:"id"`
	IDs           []string    `json:"ids"`
	TargetID      string      `json:"targetId"`
	Tags          entity.Tags `json:"tags"`
	DeleteDegen   bool        `json:"deleteDegenerate"`
	AllowUntagged bool        `json:"allowUntaggedMembers"`
	DegThresh     float64     `json:"degreesThreshold"`
}

// applyAction dispatches one named action from internal/actions onto
// the working copy, replacing current with the resulting graph.
// Args: [actionRequestJSON string]
func applyAction(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	if len(args) < 1 {
		return errorResult("applyAction requires a request body")
	}
	var req actionRequest
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return errorResult("invalid action request: " + err.Error())
	}

	ids, err := parseIDs(req.IDs)
	if err != nil {
		return errorResult(err.Error())
	}
	var id entity.ID
	if req.ID != "" {
		id, err = entity.ParseID(req.ID)
		if err != nil {
			return errorResult(err.Error())
		}
	}
	var target entity.ID
	if req.TargetID != "" {
		target, err = entity.ParseID(req.TargetID)
		if err != nil {
			return errorResult(err.Error())
		}
	}

	cfgAction := actions.DefaultConfig()
	var result *graph.Graph

	switch req.Action {
	case "changeTags":
		result = actions.ChangeTags(current, id, req.Tags)
	case "deleteNode":
		result = actions.DeleteNode(current, id, req.DeleteDegen)
	case "deleteWay":
		result = actions.DeleteWay(current, id)
	case "deleteRelation":
		result = actions.DeleteRelation(current, id, req.DeleteDegen, req.AllowUntagged)
	case "deleteMultiple":
		result = actions.DeleteMultiple(current, ids, req.DeleteDegen, req.AllowUntagged)
	case "join":
		result = actions.Join(current, ids, cfgAction)
	case "merge":
		result = actions.Merge(current, ids, target)
	case "disconnect":
		result = actions.Disconnect(current, id, cfgAction)
	case "orthogonalize":
		thresh := req.DegThresh
		if thresh == 0 {
			thresh = 12
		}
		result = actions.Orthogonalize(current, id, thresh)(1.0)
	case "straightenWay":
		result = actions.StraightenWay(current, ids, nil)(1.0)
	default:
		return errorResult("unknown action: " + req.Action)
	}

	current = result
	log.Infof("applied action %s", req.Action)
	return successResult("applied " + req.Action)
}

func parseIDs(raw []string) ([]entity.ID, error) {
	ids := make([]entity.ID, len(raw))
	for i, s := range raw {
		id, err := entity.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("topowasm: %w", err)
		}
		ids[i] = id
	}
	return ids, nil
}

// commit promotes the accumulated edits to the new diff baseline, the
// point a changeset/checkpoint is built against.
func commit(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	base = current
	return successResult("committed")
}

// diffSummary returns the user-facing edit list between the last
// committed baseline and the working copy (spec.md §4.3 Summary).
func diffSummary(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	d := diff.New(base, current)
	out, err := wirejson.EncodeChanges(d.Summary())
	if err != nil {
		return errorResult(err.Error())
	}
	return string(out)
}

// changesetXML renders the pending edits as an OsmChange document.
func changesetXML(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	d := diff.New(base, current)
	doc, err := changeset.Build(d, changeset.Options{Generator: cfg.Generator})
	if err != nil {
		return errorResult(err.Error())
	}
	return string(doc)
}

// checkpointHistory snapshots every entity in current's local layer,
// plus the related entities diff.Complete adds, as the next numbered
// version for a named branch.
// Args: [branch string]
func checkpointHistory(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	if len(args) < 1 {
		return errorResult("checkpoint requires a branch name")
	}
	branch := args[0].String()

	d := diff.New(nil, current)
	ids := d.Complete()
	entities := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := current.HasEntity(id); ok {
			entities = append(entities, e)
		}
	}

	version, err := histDB.Checkpoint(branch, nowMillis(), entities)
	if err != nil {
		return errorResult(err.Error())
	}
	return successResult(fmt.Sprintf("checkpoint %d", version))
}

// restoreHistory loads a prior checkpoint back into the working copy.
// Args: [branch string, version int]
func restoreHistory(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()

	if len(args) < 2 {
		return errorResult("restore requires branch and version")
	}
	branch := args[0].String()
	version := args[1].Int()

	entities, err := histDB.Restore(branch, version)
	if err != nil {
		return errorResult(err.Error())
	}
	current.Load(entities)
	return successResult(fmt.Sprintf("restored %d entities", len(entities)))
}

// markerAdd, markerReplace, markerRemove, markerGet, markerVisible,
// tileAdd, tileHas, and markerClear pass through to internal/spatial,
// namespaced by a serviceID the host supplies as args[0].

func markerAdd(this js.Value, args []js.Value) interface{} {
	return markerUpsert(args, spatDB.AddData)
}

func markerReplace(this js.Value, args []js.Value) interface{} {
	return markerUpsert(args, spatDB.ReplaceData)
}

func markerUpsert(args []js.Value, op func(string, spatial.Marker) error) interface{} {
	if len(args) < 2 {
		return errorResult("requires serviceID and markerJSON")
	}
	serviceID := args[0].String()
	var m spatial.Marker
	if err := json.Unmarshal([]byte(args[1].String()), &m); err != nil {
		return errorResult(err.Error())
	}
	if err := op(serviceID, m); err != nil {
		return errorResult(err.Error())
	}
	return successResult("ok")
}

func markerRemove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires serviceID and markerID")
	}
	if err := spatDB.RemoveData(args[0].String(), args[1].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("ok")
}

func markerGet(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires serviceID and markerID")
	}
	m, ok, err := spatDB.GetData(args[0].String(), args[1].String())
	if err != nil {
		return errorResult(err.Error())
	}
	if !ok {
		return "null"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(b)
}

func markerVisible(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires serviceID")
	}
	markers, err := spatDB.GetVisibleData(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	b, err := json.Marshal(markers)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(b)
}

func tileAdd(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires serviceID and tile z/x/y")
	}
	tile, err := spatial.ParseTile(args[1].String())
	if err != nil {
		return errorResult(err.Error())
	}
	if err := spatDB.AddTiles(args[0].String(), tile); err != nil {
		return errorResult(err.Error())
	}
	return successResult("ok")
}

func tileHas(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("requires serviceID and tile z/x/y")
	}
	tile, err := spatial.ParseTile(args[1].String())
	if err != nil {
		return errorResult(err.Error())
	}
	has, err := spatDB.HasTile(args[0].String(), tile)
	if err != nil {
		return errorResult(err.Error())
	}
	b, _ := json.Marshal(map[string]bool{"has": has})
	return string(b)
}

func markerClear(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires serviceID")
	}
	if err := spatDB.ClearCache(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("ok")
}

func errorResult(msg string) interface{} {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

func successResult(msg string) interface{} {
	b, _ := json.Marshal(map[string]string{"success": msg})
	return string(b)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
