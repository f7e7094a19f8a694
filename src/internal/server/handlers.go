// FILE: trafficview/src/internal/server/handlers.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"
	"trafficview/src/internal/dataset"
	"trafficview/src/internal/format"
	"trafficview/src/internal/reload"
	"trafficview/src/internal/snapshot"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"
)

// viewKind reads ?view=, falling back to view.default_view.
func (s *Server) viewKind(ctx *fasthttp.RequestCtx) (dataset.ViewKind, error) {
	raw := string(ctx.QueryArgs().Peek("view"))
	if raw == "" {
		raw = s.store.Get().View.DefaultView
	}
	return dataset.ParseViewKind(raw)
}

func (s *Server) handleQuery(ctx *fasthttp.RequestCtx) {
	kind, err := s.viewKind(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	res := s.controller.Query(reload.QueryOptions{
		View:  kind,
		Debug: ctx.QueryArgs().GetBool("debug"),
	})
	writeJSON(ctx, fasthttp.StatusOK, res)
}

func (s *Server) handleExport(ctx *fasthttp.RequestCtx, name string) {
	kind, err := s.viewKind(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	formatter, err := format.New(name, s.logger)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}

	d := s.controller.Dataset()
	filename := "traffic_logs." + formatter.Extension()

	var body []byte
	if d == nil {
		// Nothing published yet; an empty export of the right shape
		var buf bytes.Buffer
		if err := formatter.Write(&buf, dataset.Empty(), nil); err != nil {
			writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
			return
		}
		body = buf.Bytes()
	} else {
		// Downloads carry every column; max_columns only trims /data
		opts := reload.ViewOptions(s.store.Get(), kind)
		opts.MaxColumns = 0
		cols := d.ResolveColumns(opts)
		filename = snapshot.FileName(d.BuiltAt, "."+formatter.Extension())
		key := exportKey(d.Generation, name, kind, cols)

		var hit bool
		if body, hit = s.exports.get(key); !hit {
			var buf bytes.Buffer
			if err := formatter.Write(&buf, d, cols); err != nil {
				s.logger.Error("msg", "Export failed",
					"component", "server",
					"format", name,
					"error", err)
				writeError(ctx, fasthttp.StatusInternalServerError, "Export failed")
				return
			}
			body = buf.Bytes()
			s.exports.add(key, body)

			s.logger.Debug("msg", "Export rendered",
				"component", "server",
				"format", name,
				"view", kind,
				"generation", d.Generation,
				"records", d.Len(),
				"size", humanize.Bytes(uint64(len(body))))
		}
		ctx.Response.Header.Set("X-Dataset-Generation", fmt.Sprintf("%d", d.Generation))
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(formatter.ContentType())
	if name == "csv" {
		ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	} else {
		ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	}
	ctx.SetBody(body)
}

func (s *Server) handleReload(ctx *fasthttp.RequestCtx) {
	if !ctx.QueryArgs().GetBool("wait") {
		res := s.controller.Trigger(s.baseCtx)
		if !res.Accepted {
			writeJSON(ctx, fasthttp.StatusConflict, res)
			return
		}
		writeJSON(ctx, fasthttp.StatusAccepted, res)
		return
	}

	res := s.controller.Reload(s.baseCtx)
	switch {
	case !res.Accepted:
		writeJSON(ctx, fasthttp.StatusConflict, res)
	case res.Status == reload.StatusReady:
		writeJSON(ctx, fasthttp.StatusOK, res)
	default:
		writeJSON(ctx, statusForKind(res.ErrorKind), res)
	}
}

func (s *Server) handleGetConfig(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, s.store.Get().Redacted())
}

func (s *Server) handleSetConfig(ctx *fasthttp.RequestCtx) {
	patch, ok := decodePatch(ctx)
	if !ok {
		return
	}

	updated, err := s.store.Set(patch)
	if err != nil {
		s.logger.Warn("msg", "Configuration update rejected",
			"component", "server",
			"sections", strings.Join(patch.Sections(), ","),
			"error", err)
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	resp := map[string]any{
		"config": updated.Redacted(),
	}
	if patch.AffectsSource() {
		resp["reload"] = s.controller.Trigger(s.baseCtx)
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleTestConfig(ctx *fasthttp.RequestCtx) {
	patch, ok := decodePatch(ctx)
	if !ok {
		return
	}

	testCtx, cancel := context.WithTimeout(s.baseCtx, configTestTimeout)
	defer cancel()

	if err := s.store.Test(testCtx, patch, s.prober); err != nil {
		kind := core.ErrorKind(err)
		s.logger.Info("msg", "Configuration test failed",
			"component", "server",
			"kind", kind,
			"error", err)
		writeJSON(ctx, statusForKind(kind), map[string]any{
			"ok":         false,
			"error":      err.Error(),
			"error_kind": kind,
		})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"ok": true})
}

func decodePatch(ctx *fasthttp.RequestCtx) (config.Patch, bool) {
	var patch config.Patch
	body := ctx.PostBody()
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "request body required")
		return patch, false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("invalid configuration patch: %v", err))
		return patch, false
	}
	return patch, true
}

func statusForKind(kind string) int {
	switch kind {
	case "config":
		return fasthttp.StatusUnprocessableEntity
	case "connectivity":
		return fasthttp.StatusBadGateway
	default:
		return fasthttp.StatusInternalServerError
	}
}
