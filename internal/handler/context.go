package handler

type ContextKey string

var (
	SessionTokenCtx ContextKey = "sessionToken"
	SiteCtx         ContextKey = "site"
	MemberCtx       ContextKey = "member"
)
