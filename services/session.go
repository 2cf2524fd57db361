package services

import "context"

const RoleAdmin = "admin"

// Session 描述目前的呼叫情境：是否為前台互動請求、登入的顧客與角色
type Session struct {
	Interactive bool
	CustomerID  *int64
	Role        string
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// Authenticated 帶有效 token 的請求
func (s Session) Authenticated() bool { return s.CustomerID != nil || s.Role != "" }

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// ContextProbe 判斷是否能在此情境下套用贈品規則
type ContextProbe interface {
	IsInteractive(ctx context.Context) bool
}

// SessionProbe 只有帶互動 Session 的請求才算前台；背景工作與 CLI 皆略過
type SessionProbe struct{}

func (SessionProbe) IsInteractive(ctx context.Context) bool {
	s, ok := SessionFromContext(ctx)
	return ok && s.Interactive
}

// customerFromContext 回傳目前登入的顧客；匿名回傳 nil
func customerFromContext(ctx context.Context) *int64 {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	return s.CustomerID
}
