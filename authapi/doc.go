// Package authapi is the client for the backend's login and logout
// endpoints. It never touches the session store; callers decide what to do
// with a [LoginResult].
package authapi
