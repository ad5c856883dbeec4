// Package web is the HTTP front end: a chi router that maps form submissions onto
// goEstate.Engine operations and answers with JSON notices.
//
// Every response body is a [Notice]. Successful operations carry category "success";
// failures carry "danger" with a status derived from the error class:
//
//	400  password policy or malformed form value
//	401  wrong address/password or missing session
//	409  contract revert (the revert reason is the message)
//	429  login or registration rate limit
//	503  node or Redis unreachable
//	500  anything else
//
// Routes other than /, /login, /register, /health and /metrics require a session
// cookie; anonymous requests are redirected to /.
package web
