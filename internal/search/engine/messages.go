package engine

// Rotating status lines shown while the fast phase runs.
var loadingSteps = []string{
	"Warming up the search engines...",
	"Consulting the digital librarians...",
	"Teaching algorithms what books are...",
	"Locating your needle in the haystack...",
	"Asking books nicely to reveal themselves...",
	"Running fuzzy logic through coffee filters...",
}

// Rotating status lines shown while the slow sources run in the
// background.
var backgroundSteps = []string{
	"Building better results in the background...",
	"Supercharging search algorithms...",
	"Polishing the good stuff...",
	"Hunting for premium content...",
	"Brewing the perfect result cocktail...",
	"Performing background magic...",
}

// One of these accompanies the purchase suggestions when no free copy
// was found.
var noResultsMessages = []string{
	"Some wisdom comes with a price tag for a reason.",
	"Sometimes you just have to pay for knowledge!",
	"Not all treasures are free to share.",
	"Certain pages are priceless and priced accordingly.",
	"When the knowledge is rare, it's worth the fare.",
	"Some truths are too valuable to be given away.",
	"Premium insights demand a premium seat.",
	"Some chapters are worth every coin.",
	"Quality knowledge doesn't always come free.",
	"The rarest pages are the ones you invest in.",
}
