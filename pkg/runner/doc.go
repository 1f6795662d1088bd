/*
Package runner implements the interactive read-eval-print loop over the orchestrator.

It is the terminal presenter: it reads user input through a pluggable IOHandler,
runs one turn per line, and renders the messages each node appends as they are
streamed. Handlers exist for human text I/O (TextHandler) and for structured
JSON-Lines I/O (JSONHandler).

# Usage

	r := runner.NewRunner(orc,
		runner.WithUseCase("tools"),
		runner.WithSettings(domain.RequestContext{Provider: "Groq", Credentials: creds}),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}

Lines starting with "/" are commands: /use <use case>, /summary <frequency>,
/reset and /help. "exit" or "quit" ends the loop.
*/
package runner
