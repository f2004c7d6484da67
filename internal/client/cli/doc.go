// Package cli implements authctl, an interactive administration console
// for the AuthKeeper server.
//
// Commands
//
//	login [user]           log in (password is read without echo)
//	logout                 end the session
//	whoami                 show the current session
//	users [page] [filter]  list accounts, optionally filtered by id substring
//	locked                 list locked accounts
//	create <user> [role]   create an account (role user or admin)
//	delete <user>          delete an account
//	lock <user>            lock an account and end its sessions
//	unlock <user>          unlock an account
//	passwd [user]          change a password (own account by default)
//	logs [page] [user]     show the audit log, newest first
//	help, exit | quit
package cli
