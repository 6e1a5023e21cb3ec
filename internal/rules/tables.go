package rules

import "github.com/mikey/mail-topic-scanner/internal/core"

var defaultCategories = []CategoryRuleSet{
	{
		Category: core.CategoryTech,
		Domains: []string{
			"github.com", "stackoverflow.com", "dev.to", "medium.com",
			"techcrunch.com", "wired.com", "arstechnica.com", "theverge.com",
			"hackernews.com", "reddit.com/r/programming", "reddit.com/r/technology",
			"python.org", "nodejs.org", "reactjs.org", "vuejs.org",
			"angular.io", "typescript.org", "docker.com", "kubernetes.io",
			"aws.amazon.com", "azure.microsoft.com", "cloud.google.com",
			"digitalocean.com", "heroku.com", "netlify.com", "vercel.com",
			"npmjs.com", "pypi.org", "rubygems.org", "nuget.org",
			"gitlab.com", "bitbucket.org", "atlassian.com", "jira.com",
			"confluence.com", "slack.com", "discord.com", "teams.microsoft.com",
			"zoom.us", "meet.google.com", "webex.com", "gotomeeting.com",
			"notion.so", "airtable.com", "trello.com", "asana.com",
			"figma.com", "sketch.com", "invisionapp.com", "framer.com",
			"stripe.com", "paypal.com", "square.com", "shopify.com",
			"wordpress.com", "squarespace.com", "wix.com", "webflow.com",
			"sentry.io", "logrocket.com", "mixpanel.com", "amplitude.com",
			"segment.com", "intercom.com", "zendesk.com", "freshdesk.com",
		},
		Keywords: []string{
			"programming", "coding", "development", "software", "tech",
			"technology", "startup", "ai", "machine learning", "data science",
			"web development", "mobile app", "api", "database", "cloud",
			"devops", "cybersecurity", "blockchain", "cryptocurrency",
			"javascript", "python", "java", "c++", "c#", "go", "rust",
			"react", "vue", "angular", "node.js", "django", "flask",
			"docker", "kubernetes", "aws", "azure", "gcp", "github",
			"git", "agile", "scrum", "ci/cd", "testing", "deployment",
		},
		ExcludeKeywords: []string{
			"job", "career", "resume", "interview", "salary", "hiring",
			"recruiter", "headhunter", "employment", "position",
		},
	},
	{
		Category: core.CategoryNewsletter,
		Domains: []string{
			"substack.com", "mailchimp.com", "convertkit.com", "beehiiv.com",
			"revue.com", "buttondown.email", "tinyletter.com", "letter.so",
			"newsletter.com", "newsletters.com", "digest.com", "weekly.com",
			"daily.com", "monthly.com", "quarterly.com",
		},
		Keywords: []string{
			"newsletter", "digest", "weekly", "daily", "monthly",
			"subscribe", "unsubscribe", "newsletter signup", "email list",
			"mailing list", "updates", "insights", "trends", "analysis",
			"report", "summary", "roundup", "highlights", "featured",
		},
		ExcludeKeywords: []string{
			"spam", "unwanted", "unsubscribe", "remove me",
		},
	},
	{
		Category: core.CategorySocial,
		Domains: []string{
			"linkedin.com", "twitter.com", "facebook.com", "instagram.com",
			"youtube.com", "tiktok.com", "snapchat.com", "pinterest.com",
			"reddit.com", "discord.com", "slack.com", "telegram.org",
			"whatsapp.com", "signal.org", "mastodon.social", "threads.net",
		},
		Keywords: []string{
			"social media", "follow", "like", "share", "comment",
			"connection", "network", "profile", "post", "tweet",
			"story", "reel", "video", "live", "stream", "community",
			"group", "channel", "server", "chat", "message",
		},
		ExcludeKeywords: []string{
			"spam", "bot", "fake", "scam", "phishing",
		},
	},
	{
		Category: core.CategoryProfessional,
		Domains: []string{
			"linkedin.com", "indeed.com", "glassdoor.com", "monster.com",
			"careerbuilder.com", "ziprecruiter.com", "dice.com", "stackoverflow.com/jobs",
			"angel.co", "crunchbase.com", "pitchbook.com", "bloomberg.com",
			"reuters.com", "wsj.com", "ft.com", "economist.com",
			"hbr.org", "mckinsey.com", "bain.com", "bcg.com",
			"deloitte.com", "pwc.com", "ey.com", "kpmg.com",
		},
		Keywords: []string{
			"business", "industry", "market", "trends", "analysis",
			"strategy", "management", "leadership", "innovation",
			"research", "report", "study", "survey", "data",
			"insights", "opportunities", "challenges", "solutions",
			"consulting", "advisory", "expertise", "thought leadership",
		},
		ExcludeKeywords: []string{
			"spam", "scam", "phishing", "malware", "virus",
		},
	},
}

// Personal, banking, shopping and consumer platform senders.
var defaultExcludedDomains = []string{
	"bank.com", "chase.com", "wellsfargo.com", "bankofamerica.com",
	"citibank.com", "usbank.com", "capitalone.com", "discover.com",
	"americanexpress.com", "paypal.com", "venmo.com", "zelle.com",
	"robinhood.com", "fidelity.com", "vanguard.com", "schwab.com",
	"etrade.com", "tdameritrade.com", "interactivebrokers.com",
	"healthcare.gov", "medicare.gov", "ssa.gov", "irs.gov",
	"usps.com", "fedex.com", "ups.com", "dhl.com",
	"amazon.com", "ebay.com", "etsy.com", "walmart.com",
	"target.com", "bestbuy.com", "homedepot.com", "lowes.com",
	"netflix.com", "hulu.com", "disneyplus.com", "hbomax.com",
	"spotify.com", "apple.com", "microsoft.com", "google.com",
	"facebook.com", "instagram.com", "twitter.com", "linkedin.com",
	"gmail.com", "outlook.com", "yahoo.com", "icloud.com",
}

var defaultSpamIndicators = []string{
	"unsubscribe", "click here", "limited time", "act now",
	"free offer", "money back", "guarantee", "winner",
	"lottery", "prize", "inheritance", "urgent",
	"viagra", "cialis", "weight loss", "diet",
	"casino", "poker", "betting", "gambling",
}

var defaultRelevanceGroups = []RelevanceGroup{
	{
		Category: core.CategoryTech,
		Keywords: []string{
			"python", "javascript", "react", "vue", "angular", "node.js", "docker",
			"kubernetes", "aws", "azure", "gcp", "machine learning", "ai", "ml",
			"data science", "blockchain", "cybersecurity", "devops", "api",
			"database", "sql", "nosql", "git", "github", "agile", "scrum",
			"testing", "deployment", "microservices", "serverless", "cloud",
			"programming", "coding", "development", "software", "web", "mobile",
			"startup", "entrepreneurship", "productivity", "tools", "automation",
		},
	},
	{
		Category: core.CategoryNewsletter,
		Keywords: []string{
			"newsletter", "weekly", "monthly", "update", "roundup", "digest",
			"insights", "trends", "analysis", "report", "research", "study",
			"survey", "statistics", "data", "findings", "recommendations",
			"best practices", "tips", "tricks", "guide", "tutorial", "how-to",
		},
	},
	{
		Category: core.CategoryProfessional,
		Keywords: []string{
			"career", "leadership", "management", "strategy", "business",
			"marketing", "sales", "finance", "investment", "consulting",
			"networking", "professional development", "skill", "certification",
			"industry", "market", "competition", "innovation", "growth",
			"strategy", "planning", "execution", "performance", "metrics",
		},
	},
}

var defaultRelevantDomains = []string{
	"github.com", "stackoverflow.com", "medium.com", "dev.to",
	"techcrunch.com", "wired.com", "theverge.com", "arstechnica.com",
	"substack.com", "newsletter", "blog", "tech", "dev", "ai",
}

var defaultContentPatterns = []contentPatternSpec{
	{core.ContentArticle, []string{"article", "post", "blog", "story", "news", "update", "announcement"}},
	{core.ContentNewsletter, []string{"newsletter", "digest", "weekly", "monthly", "roundup", "summary", "highlights"}},
	{core.ContentNotification, []string{"notification", "alert", "reminder", "update", "status", "progress", "result"}},
	{core.ContentPromotional, []string{"offer", "deal", "discount", "sale", "promotion", "special", "limited"}},
}

var defaultStyleIndicators = []StyleIndicators{
	{
		Style: StyleTechnical,
		Words: []string{
			"api", "database", "server", "client", "protocol", "algorithm",
			"framework", "library", "dependency", "deployment", "infrastructure",
			"microservice", "container", "orchestration", "monitoring", "logging",
		},
	},
	{
		Style: StyleBusiness,
		Words: []string{
			"strategy", "market", "revenue", "growth", "investment", "partnership",
			"acquisition", "merger", "ipo", "valuation", "funding", "startup",
		},
	},
	{
		Style: StyleEducational,
		Words: []string{
			"tutorial", "guide", "learn", "course", "training", "workshop",
			"documentation", "example", "demo", "sample", "best practice",
		},
	},
}

var defaultPositiveWords = []string{
	"great", "excellent", "amazing", "wonderful", "fantastic", "awesome",
	"good", "nice", "happy", "excited", "successful", "achieved",
	"improved", "better", "best", "love", "like", "enjoy",
}

var defaultNegativeWords = []string{
	"bad", "terrible", "awful", "horrible", "disappointing", "failed",
	"error", "problem", "issue", "broken", "wrong", "hate", "dislike",
	"angry", "frustrated", "sad", "worried", "concerned",
}

var defaultStopWords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "can", "this", "that", "these", "those",
	"i", "you", "he", "she", "it", "we", "they", "me", "him", "her",
	"us", "them", "my", "your", "his", "its", "our", "their",
}
