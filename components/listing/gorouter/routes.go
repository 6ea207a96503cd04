package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/components/listing/commands"
	"github.com/rensights/admin-dashboard/components/listing/httpapi"
	"github.com/rensights/admin-dashboard/components/listing/queries"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// Config wires list resources onto a go-router router.
type Config[T any] struct {
	Router     router.Router[T]
	Resources  []httpapi.Executor
	Renderer   Renderer
	Broadcast  *listing.BroadcastHook
	BasePath   string
	LoginPath  string
	EventsPath string
}

// Register mounts JSON, HTML and WebSocket routes for every resource:
//
//	GET    <base>/<name>
//	GET    <base>/<name>/view
//	GET    <base>/<name>/:id
//	PUT    <base>/<name>/:id
//	POST   <base>/<name>/:id/:action
//	DELETE <base>/<name>/:id
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if len(cfg.Resources) == 0 {
		return errors.New("gorouter: at least one resource is required")
	}
	seen := map[string]bool{}
	for _, api := range cfg.Resources {
		if api == nil {
			return errors.New("gorouter: nil resource executor")
		}
		name := adminapi.ResourceSlug(api.Resource())
		if name == "" {
			return errors.New("gorouter: resource name is required")
		}
		if seen[name] {
			return fmt.Errorf("gorouter: resource %q registered twice", name)
		}
		seen[name] = true
	}

	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = httpapi.DefaultLoginPath
	}
	group := cfg.Router.Group(base)
	for _, api := range cfg.Resources {
		registerResource(group, api, cfg.Renderer, loginPath)
	}

	if cfg.Broadcast != nil {
		path := cfg.EventsPath
		if path == "" {
			path = "/events"
		}
		registerWebSocket(group, cfg.Broadcast, path)
	}
	return nil
}

func registerResource[T any](r router.Router[T], api httpapi.Executor, renderer Renderer, loginPath string) {
	prefix := "/" + adminapi.ResourceSlug(api.Resource())

	r.Get(prefix, router.WrapHandler(func(ctx router.Context) error {
		input, err := pageInput(ctx)
		if err != nil {
			return RespondError(ctx, &adminapi.APIError{Kind: adminapi.KindValidation, Message: err.Error()}, loginPath)
		}
		state, err := api.Page(ctx.Context(), input)
		if err != nil {
			return RespondError(ctx, err, loginPath)
		}
		return ctx.JSON(http.StatusOK, state)
	}))

	if renderer != nil {
		r.Get(prefix+"/view", router.WrapHandler(func(ctx router.Context) error {
			input, err := pageInput(ctx)
			if err != nil {
				return RespondError(ctx, &adminapi.APIError{Kind: adminapi.KindValidation, Message: err.Error()}, loginPath)
			}
			// a failed load still renders, showing the stored error message
			state, err := api.Page(ctx.Context(), input)
			if err != nil && (state == nil || adminapi.IsUnauthorized(err)) {
				return RespondError(ctx, err, loginPath)
			}
			view, err := ListView(state)
			if err != nil {
				return RespondError(ctx, err, loginPath)
			}
			var buf bytes.Buffer
			if _, err := renderer.Render(ListTemplate, view, &buf); err != nil {
				return RespondError(ctx, err, loginPath)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}))
	}

	r.Get(prefix+"/:id", router.WrapHandler(func(ctx router.Context) error {
		record, err := api.Detail(ctx.Context(), queries.DetailInput{ID: ctx.Param("id")})
		if err != nil {
			return RespondError(ctx, err, loginPath)
		}
		return ctx.JSON(http.StatusOK, record)
	}))

	r.Put(prefix+"/:id", router.WrapHandler(func(ctx router.Context) error {
		var changes map[string]any
		if err := json.Unmarshal(ctx.Body(), &changes); err != nil {
			return RespondError(ctx, &adminapi.APIError{Kind: adminapi.KindValidation, Message: err.Error(), Err: err}, loginPath)
		}
		if err := api.Update(ctx.Context(), commands.MutateRecordInput{ID: ctx.Param("id"), Changes: changes}); err != nil {
			return RespondError(ctx, err, loginPath)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))

	r.Post(prefix+"/:id/:action", router.WrapHandler(func(ctx router.Context) error {
		input := commands.RecordActionInput{ID: ctx.Param("id"), Action: ctx.Param("action")}
		if err := api.Action(ctx.Context(), input); err != nil {
			return RespondError(ctx, err, loginPath)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": input.Action})
	}))

	r.Delete(prefix+"/:id", router.WrapHandler(func(ctx router.Context) error {
		confirmed, _ := strconv.ParseBool(ctx.Query("confirm"))
		if err := api.Delete(ctx.Context(), commands.DeleteRecordInput{ID: ctx.Param("id"), Confirmed: confirmed}); err != nil {
			return RespondError(ctx, err, loginPath)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *listing.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func pageInput(ctx router.Context) (queries.PageInput, error) {
	reload := strings.TrimSpace(ctx.Query("reload")) != ""
	return httpapi.PageInputFromQuery(func(key string) string { return ctx.Query(key) }, reload)
}

// RespondError writes err as an ErrorBody, redirecting to loginPath when
// the session expired.
func RespondError(ctx router.Context, err error, loginPath string) error {
	status, body := httpapi.ErrorResponse(err, loginPath)
	if body.Redirect != "" {
		ctx.SetHeader("Location", body.Redirect)
	}
	return ctx.JSON(status, body)
}
