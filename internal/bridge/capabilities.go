package bridge

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	serviceUtil   = "Util"
	serviceUser   = "User"
	serviceNavBar = "NavBar"
	serviceLocate = "Locate"
)

// Clipboard, system share and data download need at least this host version.
const minVersionUtilExtras = "5.3"

// Log writes a line to the host's log. Empty lines are dropped.
func (b *Bridge) Log(ctx context.Context, log, result string) error {
	if log == "" {
		return nil
	}
	return b.Invoke(ctx, serviceUtil, "h5Log", map[string]any{
		"log":    log,
		"result": result,
	}, "log")
}

// LogEvent records a named analytics event. Empty names are dropped.
func (b *Bridge) LogEvent(ctx context.Context, event string) error {
	if event == "" {
		return nil
	}
	return b.Invoke(ctx, serviceUtil, "logEvent", map[string]any{"event": event}, "log_event")
}

// InitMemberH5Info asks the host for device, version and user info. Its reply
// carries the platform and version that select the transport.
func (b *Bridge) InitMemberH5Info(ctx context.Context) error {
	return b.Invoke(ctx, serviceUser, "initMemberH5Info", nil, "init_member_H5_info")
}

// CallPhone dials phone, or the call center when phone is empty.
func (b *Bridge) CallPhone(ctx context.Context, phone string) error {
	return b.Invoke(ctx, serviceUtil, "callPhone", map[string]any{"phone": phone}, "call_phone")
}

func (b *Bridge) BackToHome(ctx context.Context) error {
	return b.Invoke(ctx, serviceUtil, "backToHome", nil, "back_to_home")
}

// BackToLast leaves the web view; callbackString is handed to the previous page.
func (b *Bridge) BackToLast(ctx context.Context, callbackString string) error {
	return b.Invoke(ctx, serviceUtil, "backToLast", map[string]any{"callbackString": callbackString}, "back_to_last_page")
}

func (b *Bridge) Locate(ctx context.Context, async bool) error {
	return b.Invoke(ctx, serviceLocate, "locate", map[string]any{"is_async": async}, "locate")
}

// RefreshNavBar replaces the native navigation bar. configJSON is an object
// such as {"center":[{"tagname":"title","value":"Home"}],"right":[...]}.
func (b *Bridge) RefreshNavBar(ctx context.Context, configJSON string) error {
	if configJSON == "" {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(configJSON), &fields); err != nil || fields == nil {
		b.ParamError("nav bar config is not a JSON object")
		return fmt.Errorf("refresh nav bar: %q is not a JSON object", configJSON)
	}
	return b.Invoke(ctx, serviceNavBar, "refresh", fields, "refresh_nav_bar")
}

// Target modes for OpenURL.
const (
	OpenInCurrentView = 0
	OpenNative        = 1
	OpenInNewView     = 2
)

func (b *Bridge) OpenURL(ctx context.Context, openURL string, targetMode int, title string) error {
	return b.Invoke(ctx, serviceUtil, "openUrl", map[string]any{
		"openUrl":    openURL,
		"targetMode": targetMode,
		"title":      title,
	}, "open_url")
}

func (b *Bridge) CheckUpdate(ctx context.Context) error {
	return b.Invoke(ctx, serviceUtil, "checkUpdate", nil, "check_update")
}

func (b *Bridge) RecommendAppToFriends(ctx context.Context) error {
	return b.Invoke(ctx, serviceUtil, "recommendAppToFriends", nil, "recommend_app_to_friends")
}

func (b *Bridge) AddWeixinFriend(ctx context.Context) error {
	return b.Invoke(ctx, serviceUtil, "addWeixinFriend", nil, "add_weixin_friend")
}

// CrossPackageHref opens a page of another web package, e.g. ("myctrip", "index.html?ver=5.2").
func (b *Bridge) CrossPackageHref(ctx context.Context, path, param string) error {
	return b.Invoke(ctx, serviceUtil, "crossPackageJumpUrl", map[string]any{
		"path":  path,
		"param": param,
	}, "cross_package_href")
}

func (b *Bridge) ShowNewestIntroduction(ctx context.Context) error {
	return b.Invoke(ctx, serviceUtil, "showNewestIntroduction", nil, "show_newest_introduction")
}

func (b *Bridge) CheckNetworkStatus(ctx context.Context) error {
	return b.Invoke(ctx, serviceUtil, "checkNetworkStatus", nil, "check_network_status")
}

func (b *Bridge) CheckAppInstallStatus(ctx context.Context, openURL, packageName string) error {
	return b.Invoke(ctx, serviceUtil, "checkAppInstallStatus", map[string]any{
		"openUrl":     openURL,
		"packageName": packageName,
	}, "check_app_install_status")
}

func (b *Bridge) RefreshNativePage(ctx context.Context, pageName, jsonStr string) error {
	return b.Invoke(ctx, serviceUtil, "refreshNativePage", map[string]any{
		"pageName": pageName,
		"jsonStr":  jsonStr,
	}, "refresh_native_page")
}

func (b *Bridge) CopyToClipboard(ctx context.Context, s string) error {
	if err := b.requireVersion(minVersionUtilExtras); err != nil {
		return err
	}
	return b.Invoke(ctx, serviceUtil, "copyToClipboard", map[string]any{"copyString": s}, "copy_string_to_clipboard")
}

func (b *Bridge) ReadClipboard(ctx context.Context) error {
	if err := b.requireVersion(minVersionUtilExtras); err != nil {
		return err
	}
	return b.Invoke(ctx, serviceUtil, "readCopiedStringFromClipboard", nil, "read_copied_string_from_clipboard")
}

// SystemShare opens the OS share sheet. imageRelativePath is relative to the
// web package root.
func (b *Bridge) SystemShare(ctx context.Context, imageRelativePath, text string) error {
	if err := b.requireVersion(minVersionUtilExtras); err != nil {
		return err
	}
	return b.Invoke(ctx, serviceUtil, "callSystemShare", map[string]any{
		"imageRelativePath": imageRelativePath,
		"text":              text,
	}, "call_system_share")
}

// DownloadData has the host fetch downloadURL into its cache; the reply
// carries the saved path.
func (b *Bridge) DownloadData(ctx context.Context, downloadURL string) error {
	if err := b.requireVersion(minVersionUtilExtras); err != nil {
		return err
	}
	return b.Invoke(ctx, serviceUtil, "downloadData", map[string]any{
		"downloadUrl": downloadURL,
		"pageUrl":     b.pageURL(),
	}, "download_data")
}

func (b *Bridge) MemberLogin(ctx context.Context) error {
	return b.Invoke(ctx, serviceUser, "memberLogin", nil, "member_login")
}

func (b *Bridge) NonMemberLogin(ctx context.Context) error {
	return b.Invoke(ctx, serviceUser, "nonMemberLogin", nil, "non_member_login")
}

func (b *Bridge) MemberAutoLogin(ctx context.Context) error {
	return b.Invoke(ctx, serviceUser, "memberAutoLogin", nil, "member_auto_login")
}

func (b *Bridge) MemberRegister(ctx context.Context) error {
	return b.Invoke(ctx, serviceUser, "memberRegister", nil, "member_register")
}
