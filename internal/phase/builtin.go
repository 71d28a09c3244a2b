package phase

// Builtin phases. Other code depends on these names; they are part of the
// public contract, not a convenience.
var (
	// Startup block: each runs its systems at most once per scheduler.
	PreStartup  = NewStartup("PreStartup")
	Startup     = NewStartup("Startup")
	PostStartup = NewStartup("PostStartup")

	// Main block, in frame order.
	First      = New("First")
	PreUpdate  = New("PreUpdate")
	Update     = New("Update") // default phase for systems that specify none
	PostUpdate = New("PostUpdate")
	Last       = New("Last")

	// Engine-frame-aligned phases. They carry no order of their own; a
	// caller binds each to the matching engine event when inserting it.
	PreRender      = New("PreRender")
	PreAnimation   = New("PreAnimation")
	PreSimulation  = New("PreSimulation")
	PostSimulation = New("PostSimulation")
)

// Builtin pipelines. Schedulers register both at construction; the Main
// pipeline is the sentinel block that plain inserts land in front of.
var (
	StartupPipeline = NewPipeline("Startup").
			Insert(PreStartup).
			Insert(Startup).
			Insert(PostStartup)

	MainPipeline = NewPipeline("Main").
			Insert(First).
			Insert(PreUpdate).
			Insert(Update).
			Insert(PostUpdate).
			Insert(Last)
)
