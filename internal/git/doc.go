// Package git runs git for autocommit.
//
// Every git invocation goes through a Runner, the single "run an external
// command in a directory and capture its output" primitive. Arguments are
// always passed as an argument vector, never through a shell, so file names
// and generated commit messages cannot be interpreted as shell syntax.
//
// # Client
//
// A Client binds a Runner to a repository directory:
//
//	client := git.New(root, nil) // nil selects ExecRunner
//	raw, err := client.Status(ctx)
//	entries, err := git.ParseStatus(raw)
//	err = client.Add(ctx, "a.py")
//	err = client.Commit(ctx, "feat: add parser", "a.py")
//
// # Errors
//
// Command failures are returned as *output.ExitError with ExitSystemError and
// the command's stderr in the message. A missing git binary is reported the
// same way with a hint to install git.
package git
