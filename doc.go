/*
RTLBCH decodes and encodes binary BCH codewords, including the BCH(31,21)
words of POCSAG paging transmissions. Received words are read one per line and
each is corrected, decoded and logged.

Command-line Flags:

	-msgtype=pocsag

Sets the code to decode with: pocsag, bch31-21, bch31-21f, bch15-7, bch15-5
or bch63-51. A comma-separated list decodes every word with each code, "all"
uses every code.

	-mode=decode

Decodes received words, or with "encode" reads messages and writes the words
carrying them. With -msgtype=pocsag each encode line is a page:

	123456:3:HELLO WORLD

giving the address, the function (0 numeric, 3 alphanumeric) and the text. The
pages are laid out in batches behind frame sync words, the output may be fed
straight back to the decoder.

	-input=""

Sets the file to read words from, stdin if empty. Words are written in any
base strconv.ParseUint understands (0x, 0b or decimal). Blank lines and lines
starting with # are skipped.

	-bits=false

Reads words as strings of 0 and 1 instead, most significant bit first.

	-blocksize=64

Sets the number of words handed to the decoders at once. Use 1 when typing
words interactively.

	-duration=0

Sets time to run for, 0 for infinite.

	-filterstatus=

Display only messages with a status in the comma-separated list: valid,
corrected or uncorrectable.

	-unique=false

Suppress messages whose content was already displayed.

	-single=false

Provides one shot execution. Exits after the first valid or corrected message.

	-format="plain"

Sets the log output format: plain, csv, json, xml or sqlite. Plain text is
formatted as:

	{Time:2015-06-01T12:30:00.000 POCSAG:{Address: 123456 Function:3 Words:5 Errors:1 Status:corrected Text:"HELLO WORLD"}}

The offset, the line number of the block a message was found in, is included
when reading from a file. For json and xml output each line is an element,
there is no root node. The sqlite format appends every message to the table
"messages" of -dbfile.

	-dbfile="rtlbch.db"

Sets the database file for sqlite output.

	-gen=0 -errors=0

Writes this many random received words for each -msgtype, each with up to
-errors bit errors in the codeword, then exits.

	-loglevel="info"

Sets the logging level: debug, info, warn or error. Logs are written to
stderr.

	-version=false

Displays build tag, date and commit hash.

Every flag may also be set by an environment variable named RTLBCH_ followed by
the flag's name in upper case, for example RTLBCH_MSGTYPE=bch15-5.
*/
package main
