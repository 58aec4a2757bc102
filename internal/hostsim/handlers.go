package hostsim

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	keyClipboard = "hostsim:clipboard"
	keyUser      = "hostsim:user"
)

// User is the member record returned by the login actions.
type User struct {
	UserID    string `json:"UserID"`
	LoginName string `json:"LoginName"`
	UserName  string `json:"UserName"`
	Mobile    string `json:"Mobile"`
	IsNonUser bool   `json:"IsNonUser"`
	LoginCode int    `json:"LoginCode"`
	VipGrade  int    `json:"VipGrade"`
	Auth      string `json:"Auth"`
}

func (h *Hub) registerDefaults() {
	h.Handle("Util", "h5Log", h.handleLog)
	h.Handle("Util", "logEvent", h.handleLog)
	h.Handle("User", "initMemberH5Info", h.handleInitMemberH5Info)
	h.Handle("Util", "checkNetworkStatus", h.handleCheckNetworkStatus)
	h.Handle("Util", "checkAppInstallStatus", h.handleCheckAppInstallStatus)
	h.Handle("Util", "copyToClipboard", h.handleCopyToClipboard)
	h.Handle("Util", "readCopiedStringFromClipboard", h.handleReadClipboard)
	h.Handle("Util", "downloadData", h.handleDownloadData)
	h.Handle("Locate", "locate", h.handleLocate)
	h.Handle("User", "memberLogin", h.loginHandler(false))
	h.Handle("User", "memberAutoLogin", h.loginHandler(false))
	h.Handle("User", "memberRegister", h.loginHandler(false))
	h.Handle("User", "nonMemberLogin", h.loginHandler(true))
}

func (h *Hub) handleLog(_ context.Context, session string, req protocol.Request) (protocol.Response, error) {
	fields := []zap.Field{zap.String("session", session), zap.String("action", req.Action)}
	for _, k := range []string{"log", "result", "event"} {
		if v, ok := req.Fields[k].(string); ok {
			fields = append(fields, zap.String(k, v))
		}
	}
	h.logger.Info("page log", fields...)
	return nil, nil
}

func (h *Hub) handleInitMemberH5Info(ctx context.Context, _ string, _ protocol.Request) (protocol.Response, error) {
	user, err := h.loadUser(ctx)
	if err != nil {
		return nil, err
	}
	resp := protocol.Response{
		"timestamp":     time.Now().UnixMilli(),
		"version":       h.hc.Version(),
		"device":        h.cfg.Device,
		"appId":         h.cfg.AppID,
		"serverVersion": h.hc.Version(),
		"platform":      int(h.hc.Platform()),
		protocol.KeyParam: map[string]any{
			protocol.KeyPlatform: int(h.hc.Platform()),
			protocol.KeyVersion:  h.hc.Version(),
		},
	}
	if user != nil {
		resp["userInfo"] = user
	}
	return resp, nil
}

func (h *Hub) handleCheckNetworkStatus(context.Context, string, protocol.Request) (protocol.Response, error) {
	return protocol.Response{"hasNetwork": h.cfg.HasNetwork}, nil
}

func (h *Hub) handleCheckAppInstallStatus(_ context.Context, _ string, req protocol.Request) (protocol.Response, error) {
	pkg, _ := req.Fields["packageName"].(string)
	openURL, _ := req.Fields["openUrl"].(string)
	installed := (pkg != "" && slices.Contains(h.cfg.InstalledApps, pkg)) ||
		(openURL != "" && slices.Contains(h.cfg.InstalledApps, openURL))
	return protocol.Response{"isInstalledApp": installed}, nil
}

func (h *Hub) handleCopyToClipboard(ctx context.Context, _ string, req protocol.Request) (protocol.Response, error) {
	s, _ := req.Fields["copyString"].(string)
	if err := h.store.SetItem(ctx, keyClipboard, s); err != nil {
		return nil, fmt.Errorf("write clipboard: %w", err)
	}
	return protocol.Response{}, nil
}

func (h *Hub) handleReadClipboard(ctx context.Context, _ string, _ protocol.Request) (protocol.Response, error) {
	s, err := h.store.GetItem(ctx, keyClipboard)
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", err)
	}
	return protocol.Response{"copiedString": s}, nil
}

func (h *Hub) handleDownloadData(_ context.Context, _ string, req protocol.Request) (protocol.Response, error) {
	downloadURL, _ := req.Fields["downloadUrl"].(string)
	if downloadURL == "" {
		return protocol.Response{"error_code": "param_error"}, nil
	}
	sum := md5.Sum([]byte(downloadURL))
	return protocol.Response{
		protocol.KeyParam: map[string]any{
			"downloadUrl": downloadURL,
			"savedPath":   "../wb_cache/" + h.cfg.AppID + "/" + hex.EncodeToString(sum[:]),
		},
	}, nil
}

func (h *Hub) handleLocate(context.Context, string, protocol.Request) (protocol.Response, error) {
	loc := h.cfg.Location
	return protocol.Response{
		protocol.KeyParam: map[string]any{
			"value": map[string]any{
				"ctyName": loc.City,
				"addrs":   loc.Address,
				"lat":     loc.Lat,
				"lng":     loc.Lng,
			},
			"timeout":      time.Now().Format("2006/01/02 15:04:05"),
			"locateStatus": 0,
		},
	}, nil
}

func (h *Hub) loginHandler(nonMember bool) ActionFunc {
	return func(ctx context.Context, session string, _ protocol.Request) (protocol.Response, error) {
		user, err := h.loadUser(ctx)
		if err != nil {
			return nil, err
		}
		if user == nil {
			user = &User{
				UserID:    uuid.NewString(),
				LoginName: "hostsim",
				UserName:  "Host Simulator",
				Auth:      uuid.NewString(),
			}
		}
		user.IsNonUser = nonMember
		if err := h.saveUser(ctx, user); err != nil {
			return nil, err
		}
		h.logger.Info("page login", zap.String("session", session), zap.String("user_id", user.UserID), zap.Bool("non_member", nonMember))

		return protocol.Response{
			protocol.KeyParam: map[string]any{
				"timeout": time.Now().Add(24 * time.Hour).Format("2006/01/02"),
				"data":    user,
				"timeby":  1,
			},
		}, nil
	}
}

func (h *Hub) loadUser(ctx context.Context) (*User, error) {
	raw, err := h.store.GetItem(ctx, keyUser)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

func (h *Hub) saveUser(ctx context.Context, u *User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return h.store.SetItem(ctx, keyUser, string(b))
}
