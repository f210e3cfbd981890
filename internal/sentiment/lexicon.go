package sentiment

// Fixed word lists. Positive and negative are disjoint by construction;
// negators and intensifiers are matched against the token immediately
// preceding a lexicon word.

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "amazing": true,
	"awesome": true, "fantastic": true, "wonderful": true, "best": true,
	"love": true, "loved": true, "like": true, "liked": true,
	"happy": true, "glad": true, "pleased": true, "satisfied": true,
	"recommend": true, "recommended": true, "perfect": true, "nice": true,
	"helpful": true, "friendly": true, "fast": true, "reliable": true,
	"quality": true, "win": true, "winner": true, "success": true,
	"successful": true, "improved": true, "improvement": true, "positive": true,
	"impressive": true, "innovative": true, "easy": true, "smooth": true,
	"beautiful": true, "enjoy": true, "enjoyed": true, "favorite": true,
	"superb": true, "outstanding": true, "brilliant": true, "delighted": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "horrible": true, "awful": true,
	"worst": true, "hate": true, "hated": true, "dislike": true,
	"disliked": true, "poor": true, "disappointing": true, "disappointed": true,
	"broken": true, "slow": true, "unreliable": true, "useless": true,
	"angry": true, "upset": true, "annoyed": true, "annoying": true,
	"frustrating": true, "frustrated": true, "problem": true, "problems": true,
	"issue": true, "issues": true, "fail": true, "failed": true,
	"failure": true, "bug": true, "buggy": true, "scam": true,
	"fraud": true, "expensive": true, "overpriced": true, "negative": true,
	"complaint": true, "complaints": true, "refund": true, "crash": true,
	"crashed": true, "lost": true, "damage": true, "damaged": true,
	"ugly": true, "rude": true, "dirty": true, "mess": true,
}

var negatorWords = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true,
	"nor": true, "nobody": true, "nothing": true, "nowhere": true,
	"cannot": true, "cant": true, "wont": true, "dont": true,
	"doesnt": true, "didnt": true, "isnt": true, "wasnt": true,
	"arent": true, "werent": true, "without": true, "hardly": true,
	"barely": true,
}

var intensifierWords = map[string]bool{
	"very": true, "really": true, "extremely": true, "absolutely": true,
	"totally": true, "completely": true, "highly": true, "incredibly": true,
	"so": true, "super": true, "deeply": true, "utterly": true,
}
