package ws

import (
	"testing"

	"github.com/drdata1010/plan-b-backend-sub001/internal/auth"
)

func principal(subject string, roles ...string) *auth.Principal {
	return &auth.Principal{Subject: subject, Roles: roles}
}

func TestRuleTableAuthorize(t *testing.T) {
	anonymous := auth.Anonymous
	user := principal("u1", auth.RoleUser)
	expert := principal("e1", auth.RoleUser, auth.RoleExpert)
	support := principal("s1", auth.RoleSupport)
	admin := principal("a1", auth.RoleAdmin)

	mustParse := func(raw string) Destination {
		d, err := ParseDestination(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		return d
	}

	t.Run("auth optional", func(t *testing.T) {
		table := NewRuleTable(DefaultRules(false))

		cases := []struct {
			name string
			dest string
			p    *auth.Principal
			want bool
		}{
			{"anonymous reaches public", "/topic/public/announcements", anonymous, true},
			{"anonymous reaches rooms when auth optional", "/topic/room/1", anonymous, true},
			{"anonymous reaches queues when auth optional", "/queue/u1/messages", anonymous, true},
			{"user reaches own namespace", "/user/u1/queue/messages", user, true},
			{"user denied admin topic", "/topic/admin/alerts", user, false},
			{"expert denied admin topic", "/topic/admin/alerts", expert, false},
			{"user denied support topic", "/topic/support/queue", user, false},
			{"support reaches support topic", "/topic/support/queue", support, true},
			{"admin reaches support topic", "/topic/support/queue", admin, true},
			{"admin reaches admin topic", "/topic/admin/alerts", admin, true},
			{"support denied admin topic", "/topic/admin/alerts", support, false},
			{"user denied support role topic", "/topic/role/support", user, false},
			{"support reaches support role topic", "/topic/role/support", support, true},
			{"expert reaches expert role topic", "/topic/role/expert", expert, true},
			{"admin reaches expert role topic", "/topic/role/expert", admin, true},
			{"anonymous denied role topics even when auth optional", "/topic/role/user", anonymous, false},
			{"user reaches own role topic", "/topic/role/user", user, true},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got := table.Authorize(OpSubscribe, mustParse(tc.dest), tc.p)
				if got != tc.want {
					t.Fatalf("authorize(%s, %s) = %v, want %v", tc.dest, tc.p.Subject, got, tc.want)
				}
			})
		}
	})

	t.Run("auth required", func(t *testing.T) {
		table := NewRuleTable(DefaultRules(true))

		if !table.Authorize(OpSubscribe, mustParse("/topic/public/news"), anonymous) {
			t.Fatal("public topic must stay open to anonymous")
		}
		if table.Authorize(OpSubscribe, mustParse("/topic/room/1"), anonymous) {
			t.Fatal("anonymous must not reach rooms when auth is required")
		}
		if !table.Authorize(OpSubscribe, mustParse("/topic/room/1"), user) {
			t.Fatal("authenticated user must reach rooms")
		}
		if table.Authorize(OpSend, mustParse("/app/chat/s1"), anonymous) {
			t.Fatal("anonymous must not send app commands when auth is required")
		}
	})

	t.Run("first match wins", func(t *testing.T) {
		// /topic/admin is listed before the general /topic rules, so an
		// authenticated non-admin is still denied.
		table := NewRuleTable(DefaultRules(false))
		if table.Authorize(OpSubscribe, mustParse("/topic/admin/x"), user) {
			t.Fatal("general rule must not shadow the admin rule")
		}
	})

	t.Run("unmatched destination is denied", func(t *testing.T) {
		table := NewRuleTable([]Rule{{Prefix: "/topic/known", Access: PermitAll}})
		if table.Authorize(OpSubscribe, mustParse("/topic/other"), admin) {
			t.Fatal("default must be deny")
		}
	})

	t.Run("prefix match is segment-wise", func(t *testing.T) {
		table := NewRuleTable([]Rule{{Prefix: "/topic/admin", Access: HasRole, Roles: []string{auth.RoleAdmin}}})
		// /topic/administrivia does not fall under /topic/admin.
		if table.Authorize(OpSubscribe, mustParse("/topic/administrivia"), admin) {
			t.Fatal("sibling prefix must not match")
		}
	})
}
