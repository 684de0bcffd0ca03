package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"
)

type Channel struct {
	Title         string
	Link          string
	Description   string
	SelfLink      string
	LastBuildDate time.Time
	Generator     string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// NewChannel builds the channel metadata for the configured site.
func NewChannel(site *Config, selfLink, version string, lastBuild time.Time) Channel {
	return Channel{
		Title:         site.Feed.Title,
		Link:          site.Homepage,
		Description:   site.Feed.Description,
		SelfLink:      selfLink,
		LastBuildDate: lastBuild,
		Generator:     fmt.Sprintf("homefeed/%s", version),
	}
}

func (g *Generator) Run(channel Channel, items []FeedItem) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(channel.Description, channel.Title), 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := channel.LastBuildDate
	if lastBuildDate.IsZero() {
		lastBuildDate = time.Now()
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.In(time.Local).Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", channel.Generator, 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item FeedItem) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)
	g.writeElement(buf, "description", item.Description, 6)
	g.writeElement(buf, "pubDate", item.PubDate.Format(time.RFC1123Z), 6)

	// Internal ids are paths, so the guid is never a permalink.
	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(item.ID))
	buf.WriteString("</guid>\n")

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
