package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/HsiangNianian/hybridbridge/internal/bridge"
)

type command struct {
	usage   string
	args    int
	// noReply marks actions the host only records; nothing comes back.
	noReply bool
	run     func(ctx context.Context, b *bridge.Bridge, args []string) error
}

func noArgs(fn func(*bridge.Bridge, context.Context) error) func(context.Context, *bridge.Bridge, []string) error {
	return func(ctx context.Context, b *bridge.Bridge, _ []string) error { return fn(b, ctx) }
}

var commands = map[string]command{
	"log": {"log <line> [result]", 1, true, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.Log(ctx, a[0], optional(a, 1))
	}},
	"log-event": {"log-event <name>", 1, true, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.LogEvent(ctx, a[0])
	}},
	"init": {"init", 0, false, noArgs((*bridge.Bridge).InitMemberH5Info)},
	"call-phone": {"call-phone [number]", 0, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.CallPhone(ctx, optional(a, 0))
	}},
	"back-to-home": {"back-to-home", 0, false, noArgs((*bridge.Bridge).BackToHome)},
	"back-to-last": {"back-to-last [callback]", 0, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.BackToLast(ctx, optional(a, 0))
	}},
	"locate": {"locate [async]", 0, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		async, _ := strconv.ParseBool(optional(a, 0))
		return b.Locate(ctx, async)
	}},
	"nav-bar": {"nav-bar <config-json>", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.RefreshNavBar(ctx, a[0])
	}},
	"open-url": {"open-url <url> [mode] [title]", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		mode := bridge.OpenInCurrentView
		if s := optional(a, 1); s != "" {
			m, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("mode: %w", err)
			}
			mode = m
		}
		return b.OpenURL(ctx, a[0], mode, optional(a, 2))
	}},
	"check-update":      {"check-update", 0, false, noArgs((*bridge.Bridge).CheckUpdate)},
	"recommend":         {"recommend", 0, false, noArgs((*bridge.Bridge).RecommendAppToFriends)},
	"add-weixin-friend": {"add-weixin-friend", 0, false, noArgs((*bridge.Bridge).AddWeixinFriend)},
	"cross-package": {"cross-package <path> [param]", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.CrossPackageHref(ctx, a[0], optional(a, 1))
	}},
	"introduction": {"introduction", 0, false, noArgs((*bridge.Bridge).ShowNewestIntroduction)},
	"network":      {"network", 0, false, noArgs((*bridge.Bridge).CheckNetworkStatus)},
	"app-installed": {"app-installed <url> [package]", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.CheckAppInstallStatus(ctx, a[0], optional(a, 1))
	}},
	"refresh-native": {"refresh-native <page> [json]", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.RefreshNativePage(ctx, a[0], optional(a, 1))
	}},
	"copy": {"copy <text>", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.CopyToClipboard(ctx, a[0])
	}},
	"paste": {"paste", 0, false, noArgs((*bridge.Bridge).ReadClipboard)},
	"share": {"share <image> [text]", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.SystemShare(ctx, a[0], optional(a, 1))
	}},
	"download": {"download <url>", 1, false, func(ctx context.Context, b *bridge.Bridge, a []string) error {
		return b.DownloadData(ctx, a[0])
	}},
	"login":            {"login", 0, false, noArgs((*bridge.Bridge).MemberLogin)},
	"non-member-login": {"non-member-login", 0, false, noArgs((*bridge.Bridge).NonMemberLogin)},
	"auto-login":       {"auto-login", 0, false, noArgs((*bridge.Bridge).MemberAutoLogin)},
	"register":         {"register", 0, false, noArgs((*bridge.Bridge).MemberRegister)},
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func usageLines() []string {
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, "  "+c.usage)
	}
	sort.Strings(lines)
	return lines
}
