// Package shell tells the user how to put the install root on PATH.
//
// pget never edits rc files. It detects the login shell, checks the
// current PATH, and prints the line to add:
//
//	bash, zsh:  export PATH="/home/me/.pget/bin:$PATH"
//	fish:       fish_add_path '/home/me/.pget/bin'
package shell
